package domain

// Dimensions is the pixel size of an ad format.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

var formatDimensions = map[string]Dimensions{
	"instagram-story":   {Width: 1080, Height: 1920},
	"instagram-feed":    {Width: 1080, Height: 1080},
	"facebook-ad":       {Width: 1200, Height: 628},
	"twitter-post":      {Width: 1200, Height: 675},
	"youtube-thumbnail": {Width: 1280, Height: 720},
	"google-display":    {Width: 300, Height: 250},
	"ec-banner":         {Width: 728, Height: 90},
	"product-image":     {Width: 800, Height: 800},
}

// FormatDimensions resolves a format name to its pixel size.
func FormatDimensions(format string) (Dimensions, bool) {
	dims, ok := formatDimensions[format]
	return dims, ok
}

// The tone descriptions are written in Japanese because the prompt
// templates target a Japanese-market design audience.
var toneDescriptions = map[string]string{
	"modern":  "モダンで洗練された現代的なスタイル、クリーンなライン、ミニマルな装飾",
	"cute":    "可愛らしく親しみやすいスタイル、柔らかい色調、丸みのある要素",
	"luxury":  "高級感のある上品なスタイル、ゴールドやダークカラー、エレガントなタイポグラフィ",
	"pop":     "明るく元気なポップスタイル、ビビッドカラー、遊び心のある要素",
	"minimal": "シンプルで洗練されたミニマルスタイル、余白を活かしたデザイン",
	"bold":    "大胆でインパクトのあるスタイル、強いコントラスト、目を引く構図",
}

// ToneDescription resolves a tone to its style description, falling
// back to the modern tone for unknown values.
func ToneDescription(tone string) string {
	if desc, ok := toneDescriptions[tone]; ok {
		return desc
	}
	return toneDescriptions["modern"]
}
