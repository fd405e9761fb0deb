package service

import (
	"fmt"
	"strings"

	"github.com/adcraftlabs/adcraft/internal/generation/domain"
)

type imagePromptParams struct {
	ProductName    string
	CatchCopy      string
	Description    string
	TargetAudience string
	ToneDesc       string
	PrimaryColor   string
	SecondaryColor string
	Dimensions     domain.Dimensions
	Format         string
	HasReference   bool
}

// buildImagePrompt renders the generation instruction handed to the
// model. The template is Japanese to match the product's market.
func buildImagePrompt(p imagePromptParams) string {
	var b strings.Builder

	b.WriteString("あなたはプロの広告デザイナーです。以下の条件に基づいて、魅力的な広告画像を生成してください。\n\n")

	b.WriteString("【商品情報】\n")
	fmt.Fprintf(&b, "- 商品名: %s\n", p.ProductName)
	if p.CatchCopy != "" {
		fmt.Fprintf(&b, "- キャッチコピー: %s\n", p.CatchCopy)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "- 商品説明: %s\n", p.Description)
	}
	if p.TargetAudience != "" {
		fmt.Fprintf(&b, "- ターゲット: %s\n", p.TargetAudience)
	}

	if p.HasReference {
		b.WriteString("\n【参考画像について】\n")
		b.WriteString("添付された参考画像を分析し、以下の点を広告に反映してください：\n")
		b.WriteString("- 画像に写っている商品のビジュアル要素（形状、質感、特徴）\n")
		b.WriteString("- 画像の雰囲気やスタイルを参考に\n")
		b.WriteString("- 商品の魅力的な見せ方を参考画像から学び取る\n")
	}

	b.WriteString("\n【デザイン要件】\n")
	fmt.Fprintf(&b, "- フォーマット: %s\n", p.Format)
	fmt.Fprintf(&b, "- サイズ: %dx%dpx\n", p.Dimensions.Width, p.Dimensions.Height)
	fmt.Fprintf(&b, "- デザインスタイル: %s\n", p.ToneDesc)
	if p.PrimaryColor != "" {
		fmt.Fprintf(&b, "- メインカラー: %s\n", p.PrimaryColor)
	}
	if p.SecondaryColor != "" {
		fmt.Fprintf(&b, "- サブカラー: %s\n", p.SecondaryColor)
	}

	b.WriteString("\n【重要な指示】\n")
	b.WriteString("1. 商品の魅力を最大限に引き出す構図\n")
	b.WriteString("2. ターゲットに訴求する視覚的要素\n")
	b.WriteString("3. キャッチコピーがある場合は読みやすく配置\n")
	b.WriteString("4. 指定されたカラースキームを活用\n")
	b.WriteString("5. プロフェッショナルな広告として完成度の高いデザイン\n")
	b.WriteString("6. SNSやウェブで映える目を引くビジュアル\n")
	if p.HasReference {
		b.WriteString("7. 参考画像の商品・スタイルを活かしたデザイン\n")
	}

	b.WriteString("\n広告画像を生成してください。")
	return b.String()
}

var editTypeGuides = map[string]string{
	"text_change":    "テキストの内容やフォント、配置を変更してください。",
	"color_adjust":   "色味やカラーパレットを調整してください。",
	"style_change":   "デザインスタイルや雰囲気を変更してください。",
	"element_remove": "不要な要素を除去してください。",
}

// buildEditPrompt renders the edit instruction handed to the model
// alongside the source image.
func buildEditPrompt(instruction, editType string) string {
	var b strings.Builder

	b.WriteString("あなたはプロの広告デザイナーです。添付された広告画像に対して、以下の編集指示に従って画像を修正してください。\n")
	if guide, ok := editTypeGuides[editType]; ok {
		fmt.Fprintf(&b, "\n編集の種類: %s\n", guide)
	}

	b.WriteString("\n【編集指示】\n")
	b.WriteString(instruction)
	b.WriteString("\n")

	b.WriteString("\n【重要な注意事項】\n")
	b.WriteString("1. 元の画像のレイアウトやデザインの品質を維持しながら修正してください。\n")
	b.WriteString("2. 指示された部分のみを変更し、他の要素にはできるだけ影響を与えないでください。\n")
	b.WriteString("3. 広告として完成度の高い仕上がりを保ってください。\n")
	b.WriteString("4. 修正後の画像を出力してください。\n")

	b.WriteString("\n修正した広告画像を生成してください。")
	return b.String()
}
