// Package diff compares two rendered captures pixel by pixel and writes a
// highlighted artifact showing where they differ.
package diff

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/maxvaer/nitpx/internal/result"
)

// MaxDistance is the largest per-pixel distance: 255 on each of R, G and B.
const MaxDistance = 3 * 255

// Tolerance absorbs floating-point noise when comparing a score against
// the threshold.
const Tolerance = 1e-14

// Highlight is blended over every differing pixel of the testing capture.
var Highlight = color.NRGBA{R: 255, G: 165, B: 0, A: 188}

// Verdict is the pass/fail decision for one comparison.
type Verdict int

const (
	Pass Verdict = iota
	Fail
)

func (v Verdict) String() string {
	if v == Fail {
		return "fail"
	}
	return "pass"
}

// Result is the outcome of Compare.
type Result struct {
	Percent      float64
	Verdict      Verdict
	FastPath     bool        // byte-identical inputs, nothing decoded
	Artifact     image.Image // nil on the fast path
	ArtifactPath string
}

// Compare decides whether trusted and testing render the same page within
// thresholdPct percent, and writes the diff artifact to outputPath.
//
// Byte-identical inputs skip decoding entirely and the trusted capture is
// written as the artifact.
func Compare(trusted, testing []byte, outputPath string, thresholdPct float64) (*Result, error) {
	if len(trusted) == len(testing) && xxhash.Sum64(trusted) == xxhash.Sum64(testing) {
		if err := os.WriteFile(outputPath, trusted, 0644); err != nil {
			return nil, &result.ArtifactIOError{Op: "write", Path: outputPath, Err: err}
		}
		return &Result{Verdict: Pass, FastPath: true, ArtifactPath: outputPath}, nil
	}

	trustedImg, err := decode(trusted, result.RoleTrusted)
	if err != nil {
		return nil, err
	}
	testingImg, err := decode(testing, result.RoleTesting)
	if err != nil {
		return nil, err
	}

	pct, artifact, err := PercentDifference(trustedImg, testingImg)
	if err != nil {
		return nil, err
	}
	if err := writePNG(outputPath, artifact); err != nil {
		return nil, err
	}

	return &Result{
		Percent:      pct,
		Verdict:      Judge(pct, thresholdPct),
		Artifact:     artifact,
		ArtifactPath: outputPath,
	}, nil
}

// CompareFiles reads two PNG captures from disk and compares them.
func CompareFiles(trustedPath, testingPath, outputPath string, thresholdPct float64) (*Result, error) {
	trusted, err := os.ReadFile(trustedPath)
	if err != nil {
		return nil, &result.ArtifactIOError{Op: "read", Path: trustedPath, Err: err}
	}
	testing, err := os.ReadFile(testingPath)
	if err != nil {
		return nil, &result.ArtifactIOError{Op: "read", Path: testingPath, Err: err}
	}
	return Compare(trusted, testing, outputPath, thresholdPct)
}

// Judge turns a percent difference into a verdict.
func Judge(pct, thresholdPct float64) Verdict {
	if pct-thresholdPct > Tolerance {
		return Fail
	}
	return Pass
}

// PercentDifference scores how far apart a and b are, from 0 (identical) to
// 100 (every channel at opposite extremes), and builds the highlight image.
// Differing pixels show b blended with Highlight; identical pixels show a.
func PercentDifference(a, b image.Image) (float64, *image.NRGBA, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Size() != bb.Size() {
		return 0, nil, &result.DimensionMismatchError{Trusted: ab.Size(), Testing: bb.Size()}
	}

	w, h := ab.Dx(), ab.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	var total uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pa := nrgbaAt(a, ab.Min.X+x, ab.Min.Y+y)
			pb := nrgbaAt(b, bb.Min.X+x, bb.Min.Y+y)

			d := Distance(pa, pb)
			if d > 0 {
				out.SetNRGBA(x, y, Blend(pb, Highlight))
			} else {
				out.SetNRGBA(x, y, pa)
			}
			total += uint64(d)
		}
	}

	if w == 0 || h == 0 {
		return 0, out, nil
	}
	pct := float64(total) * 100 / (float64(MaxDistance) * float64(w) * float64(h))
	return pct, out, nil
}

// Distance is the sum of absolute red, green and blue channel differences.
// Alpha is ignored.
func Distance(p, q color.NRGBA) uint32 {
	return absDiff(p.R, q.R) + absDiff(p.G, q.G) + absDiff(p.B, q.B)
}

// Blend composites fg over bg (source-over) and rounds back to 8 bits.
func Blend(bg, fg color.NRGBA) color.NRGBA {
	const full = 255.0
	bgA, fgA := float64(bg.A)/full, float64(fg.A)/full

	outA := bgA + fgA - bgA*fgA
	if outA == 0 {
		return bg
	}

	channel := func(b, f uint8) uint8 {
		v := (float64(f)/full*fgA + float64(b)/full*bgA*(1-fgA)) / outA
		return uint8(full*v + 0.5)
	}
	return color.NRGBA{
		R: channel(bg.R, fg.R),
		G: channel(bg.G, fg.G),
		B: channel(bg.B, fg.B),
		A: uint8(full*outA + 0.5),
	}
}

// nrgbaAt returns the non-premultiplied 8-bit color at x, y.
func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	switch src := img.(type) {
	case *image.NRGBA:
		return src.NRGBAAt(x, y)
	case *image.RGBA:
		if c := src.RGBAAt(x, y); c.A == 0xff {
			return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
		}
	}
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func absDiff(a, b uint8) uint32 {
	if a > b {
		return uint32(a - b)
	}
	return uint32(b - a)
}

func decode(data []byte, role result.Role) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &result.CorruptImageError{Role: role, Err: err}
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return &result.ArtifactIOError{Op: "write", Path: path, Err: err}
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return &result.ArtifactIOError{Op: "write", Path: path, Err: fmt.Errorf("encoding png: %w", err)}
	}
	if err := f.Close(); err != nil {
		return &result.ArtifactIOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
