// Package meme renders score-appropriate meme images for runs.
package meme

import (
	"fmt"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"roastmachine/internal/config"
	"roastmachine/internal/results"
)

const (
	memeWidth  = 800
	memeHeight = 600
)

type caption struct {
	Top    string
	Bottom string
}

var captionTemplates = map[string][]caption{
	"low": {
		{"I ASKED FOR GPT-4", "BUT GOT A MAGIC 8-BALL"},
		{"YOUR MODEL", "STILL LOADING..."},
		{"THEY SAID AI WOULD TAKE OUR JOBS", "THIS ONE'S SAFE"},
	},
	"medium": {
		{"NOT GREAT", "NOT TERRIBLE"},
		{"WHEN YOUR MODEL WORKS", "BUT ONLY SOMETIMES"},
		{"GOOD ENOUGH", "FOR GOVERNMENT WORK"},
	},
	"high": {
		{"IMPRESSIVE MODEL", "STILL CAN'T EXPLAIN ITS REASONING"},
		{"WHEN YOUR MODEL ACES THE TEST", "BUT FAILS IN PRODUCTION"},
		{"GREAT PERFORMANCE", "SUSPICIOUSLY GREAT..."},
	},
}

// Tinted backgrounds keyed by the score tier.
var backgrounds = map[string]color.RGBA{
	"low":    {R: 255, G: 214, B: 214, A: 255},
	"medium": {R: 255, G: 246, B: 204, A: 255},
	"high":   {R: 214, G: 245, B: 214, A: 255},
}

// Renderer draws meme PNGs. The random source is injectable for tests.
type Renderer struct {
	rng      *rand.Rand
	fontPath string
}

func NewRenderer() *Renderer {
	r := &Renderer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	if path, ok := config.GetConfig("memes.font"); ok {
		r.fontPath = path
	}
	return r
}

// NewRendererSeeded returns a deterministic renderer.
func NewRendererSeeded(seed int64) *Renderer {
	return &Renderer{rng: rand.New(rand.NewSource(seed))}
}

// Dir returns the meme output directory.
func Dir() string {
	if value, ok := config.GetConfig("memes.dir"); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return "memes"
}

// Render draws a meme for the run and writes it to outputPath. An empty
// outputPath writes <run-id>.png under the meme directory.
func (r *Renderer) Render(run results.Run, outputPath string) (string, error) {
	if outputPath == "" {
		name := run.ID
		if name == "" {
			name = fmt.Sprintf("meme_%d", time.Now().Unix())
		}
		outputPath = filepath.Join(Dir(), name+".png")
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create meme dir: %w", err)
		}
	}

	tier := scoreTier(run.OverallScore)
	captions := captionTemplates[tier]
	chosen := captions[r.rng.Intn(len(captions))]

	dc := gg.NewContext(memeWidth, memeHeight)
	bg := backgrounds[tier]
	dc.SetRGB255(int(bg.R), int(bg.G), int(bg.B))
	dc.Clear()

	if r.fontPath != "" {
		if err := dc.LoadFontFace(r.fontPath, 48); err != nil {
			dc.SetFontFace(basicfont.Face7x13)
		}
	} else {
		dc.SetFontFace(basicfont.Face7x13)
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawStringWrapped(strings.ToUpper(chosen.Top),
		memeWidth/2, memeHeight*0.1, 0.5, 0.5, memeWidth-40, 1.4, gg.AlignCenter)
	dc.DrawStringWrapped(strings.ToUpper(chosen.Bottom),
		memeWidth/2, memeHeight*0.9, 0.5, 0.5, memeWidth-40, 1.4, gg.AlignCenter)

	model := run.Model
	if model == "" {
		model = "Unknown Model"
	}
	dc.DrawStringWrapped(fmt.Sprintf("%s (score %.2f)", model, run.OverallScore),
		memeWidth/2, memeHeight/2, 0.5, 0.5, memeWidth-40, 1.4, gg.AlignCenter)

	if err := dc.SavePNG(outputPath); err != nil {
		return "", fmt.Errorf("save meme: %w", err)
	}
	return outputPath, nil
}

func scoreTier(score float64) string {
	switch {
	case score < 0.4:
		return "low"
	case score < 0.7:
		return "medium"
	default:
		return "high"
	}
}
