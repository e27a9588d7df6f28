// Package chart renders book snapshots as images.
package chart

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"tradedesk/internal/domain"
	"tradedesk/internal/view"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
)

var (
	background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	bidColor   = color.NRGBA{R: 46, G: 160, B: 67, A: 255}
	offerColor = color.NRGBA{R: 207, G: 34, B: 46, A: 255}
	midColor   = color.NRGBA{R: 120, G: 120, B: 120, A: 255}
)

// RenderDepth draws cumulative bid and offer depth across the price range of the book.
// An empty book renders as a blank canvas with the mid marker.
func RenderDepth(v view.BookView, width, height int) *image.NRGBA {
	img := imaging.New(width, height, background)
	if width < 2 || height < 1 {
		return img
	}

	low, high := priceRange(v)
	span := high.Sub(low)

	step := func(x int) decimal.Decimal {
		if span.IsZero() {
			return low
		}
		return low.Add(span.Mul(decimal.NewFromInt(int64(x))).Div(decimal.NewFromInt(int64(width - 1))))
	}

	bidDepth := make([]decimal.Decimal, width)
	offerDepth := make([]decimal.Decimal, width)
	maxDepth := decimal.Zero
	for x := 0; x < width; x++ {
		p := step(x)
		bidDepth[x] = depthAt(v.Bids, func(o *domain.Order) bool { return o.Price.GreaterThanOrEqual(p) })
		offerDepth[x] = depthAt(v.Offers, func(o *domain.Order) bool { return o.Price.LessThanOrEqual(p) })
		maxDepth = decimal.Max(maxDepth, bidDepth[x], offerDepth[x])
	}

	if maxDepth.IsPositive() {
		for x := 0; x < width; x++ {
			// Offers are drawn over bids where the two sides overlap.
			drawColumn(img, x, bidDepth[x], maxDepth, height, bidColor)
			drawColumn(img, x, offerDepth[x], maxDepth, height, offerColor)
		}
	}

	if !span.IsZero() && v.Mid.GreaterThanOrEqual(low) && v.Mid.LessThanOrEqual(high) {
		x := int(v.Mid.Sub(low).Mul(decimal.NewFromInt(int64(width - 1))).Div(span).IntPart())
		img = imaging.Paste(img, imaging.New(1, height, midColor), image.Pt(x, 0))
	}

	return img
}

func priceRange(v view.BookView) (decimal.Decimal, decimal.Decimal) {
	var prices []decimal.Decimal
	for _, o := range v.Bids {
		prices = append(prices, *o.Price)
	}
	for _, o := range v.Offers {
		prices = append(prices, *o.Price)
	}
	if len(prices) == 0 {
		return v.BestBid, v.BestBid
	}
	return decimal.Min(prices[0], prices[1:]...), decimal.Max(prices[0], prices[1:]...)
}

func depthAt(orders []domain.Order, include func(o *domain.Order) bool) decimal.Decimal {
	total := decimal.Zero
	for i := range orders {
		if include(&orders[i]) {
			total = total.Add(orders[i].Size)
		}
	}
	return total
}

func drawColumn(img *image.NRGBA, x int, depth, maxDepth decimal.Decimal, height int, c color.NRGBA) {
	if !depth.IsPositive() {
		return
	}
	h := int(depth.Mul(decimal.NewFromInt(int64(height))).Div(maxDepth).Ceil().IntPart())
	if h > height {
		h = height
	}
	for y := height - h; y < height; y++ {
		img.SetNRGBA(x, y, c)
	}
}

// SavePNG writes the image to path, creating parent directories.
func SavePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	return nil
}
