// Package imagegen renders seasonal plant images with Runware and writes
// them to disk.
package imagegen

import (
	"cmp"
	"context"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gardenscape/plant-import/internal/cost"
	"github.com/gardenscape/plant-import/internal/metrics"
	"github.com/gardenscape/plant-import/pkg/runware"
)

// DefaultDir is where images are written unless configured otherwise.
const DefaultDir = "generated-images"

// ImageType is the season or view an image depicts.
type ImageType string

const (
	Spring  ImageType = "spring"
	Summer  ImageType = "summer"
	Autumn  ImageType = "autumn"
	Winter  ImageType = "winter"
	Closeup ImageType = "closeup"
)

// AllTypes lists every image type in generation order.
var AllTypes = []ImageType{Spring, Summer, Autumn, Winter, Closeup}

// ParseType maps a user-supplied name to an ImageType.
func ParseType(s string) (ImageType, bool) {
	t := ImageType(strings.ToLower(strings.TrimSpace(s)))
	if t == "fall" {
		return Autumn, true
	}
	for _, known := range AllTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

var scenes = map[ImageType]string{
	Spring:  "in early spring with fresh new growth and emerging buds, soft morning light",
	Summer:  "in full summer bloom in a lush garden border, bright natural daylight",
	Autumn:  "in autumn with seed heads and warm seasonal foliage colors, low golden light",
	Winter:  "in winter dormancy with frost on the stems and structure, overcast light",
	Closeup: "close-up macro detail of the flowers and leaves, shallow depth of field",
}

const promptTemplate = "Photorealistic botanical garden photograph of %s %s. Natural setting, high detail, no text, no people."

const negativePrompt = "text, watermark, logo, people, hands, illustration, cartoon, blurry, distorted"

// Subject identifies the plant to render.
type Subject struct {
	ScientificName string
	CommonName     string
}

func (s Subject) label() string {
	if s.CommonName != "" && s.ScientificName != "" {
		return fmt.Sprintf("%s (%s)", s.CommonName, s.ScientificName)
	}
	if s.ScientificName != "" {
		return s.ScientificName
	}
	return s.CommonName
}

// Prompt returns the positive prompt for s and t.
func Prompt(s Subject, t ImageType) string {
	return fmt.Sprintf(promptTemplate, s.label(), scenes[t])
}

// Result is one written image.
type Result struct {
	Type     ImageType `json:"type"`
	Path     string    `json:"path"`
	ImageURL string    `json:"image_url"`
	Cost     float64   `json:"cost"`
}

// Generator creates images for plants.
type Generator struct {
	client      runware.Client
	fs          afero.Fs
	dir         string
	width       int
	height      int
	concurrency int
	tracker     *cost.Tracker
	metrics     *metrics.Metrics
	now         func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithDir sets the output directory.
func WithDir(dir string) Option {
	return func(g *Generator) {
		if dir != "" {
			g.dir = dir
		}
	}
}

// WithFS sets the filesystem images are written to.
func WithFS(fs afero.Fs) Option {
	return func(g *Generator) { g.fs = fs }
}

// WithSize sets the image dimensions in pixels.
func WithSize(width, height int) Option {
	return func(g *Generator) {
		if width > 0 && height > 0 {
			g.width, g.height = width, height
		}
	}
}

// WithConcurrency bounds simultaneous image requests.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithCostTracker records image spend.
func WithCostTracker(t *cost.Tracker) Option {
	return func(g *Generator) { g.tracker = t }
}

// WithMetrics counts written images.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithClock overrides the timestamp source used in file names.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a Generator.
func New(client runware.Client, opts ...Option) *Generator {
	g := &Generator{
		client:      client,
		fs:          afero.NewOsFs(),
		dir:         DefaultDir,
		width:       1024,
		height:      1024,
		concurrency: 2,
		now:         time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate renders one image per type and writes each as
// {plant}-{type}-{timestamp}.png. A type that fails is logged and skipped;
// an error is returned only when no image was written.
func (g *Generator) Generate(ctx context.Context, s Subject, types []ImageType) ([]Result, error) {
	if s.label() == "" {
		return nil, eris.New("imagegen: subject has no name")
	}
	if len(types) == 0 {
		types = AllTypes
	}
	if err := g.fs.MkdirAll(g.dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "imagegen: create %s", g.dir)
	}

	log := zap.L().With(zap.String("plant", s.label()))
	var (
		mu      sync.Mutex
		results []Result
		lastErr error
	)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for _, t := range types {
		eg.Go(func() error {
			r, err := g.generateOne(gctx, s, t)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("imagegen: image failed", zap.String("type", string(t)), zap.Error(err))
				lastErr = err
				return nil
			}
			results = append(results, r)
			return nil
		})
	}
	_ = eg.Wait()

	if len(results) == 0 && lastErr != nil {
		return nil, eris.Wrap(lastErr, "imagegen: no images generated")
	}
	sortByType(results)
	return results, nil
}

func (g *Generator) generateOne(ctx context.Context, s Subject, t ImageType) (Result, error) {
	img, err := g.client.GenerateImage(ctx, runware.ImageRequest{
		PositivePrompt: Prompt(s, t),
		NegativePrompt: negativePrompt,
		Width:          g.width,
		Height:         g.height,
	})
	if err != nil {
		return Result{}, eris.Wrapf(err, "imagegen: generate %s", t)
	}
	price := g.tracker.Calculator().RunwareImage(img.Cost)
	g.tracker.Add(cost.ProviderRunware, price)

	data, err := g.client.Download(ctx, img.ImageURL)
	if err != nil {
		return Result{}, eris.Wrapf(err, "imagegen: download %s", t)
	}

	name := FileName(s.ScientificName, t, g.now())
	if s.ScientificName == "" {
		name = FileName(s.CommonName, t, g.now())
	}
	p := path.Join(g.dir, name)
	if err := afero.WriteFile(g.fs, p, data, 0o644); err != nil {
		return Result{}, eris.Wrapf(err, "imagegen: write %s", p)
	}
	g.metrics.ImageWritten()

	return Result{Type: t, Path: p, ImageURL: img.ImageURL, Cost: price}, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// FileName returns "{plant}-{type}-{timestamp}.png" with the plant name
// reduced to a lowercase slug and the timestamp in Unix milliseconds.
func FileName(plant string, t ImageType, at time.Time) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(plant), "-"), "-")
	if slug == "" {
		slug = "plant"
	}
	return fmt.Sprintf("%s-%s-%d.png", slug, t, at.UnixMilli())
}

func sortByType(results []Result) {
	order := make(map[ImageType]int, len(AllTypes))
	for i, t := range AllTypes {
		order[t] = i
	}
	slices.SortFunc(results, func(a, b Result) int {
		return cmp.Compare(order[a.Type], order[b.Type])
	})
}
