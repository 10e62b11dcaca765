package thermfield

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFieldFromImageGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(10*y + x)})
		}
	}

	field := FieldFromImage(img)

	if field.Kind != KindTemperature {
		t.Fatalf("kind %v, want %v", field.Kind, KindTemperature)
	}
	if field.Rows != 2 || field.Cols != 3 {
		t.Fatalf("shape %dx%d, want 2x3", field.Rows, field.Cols)
	}
	if got := field.At(1, 2); got != 12 {
		t.Fatalf("cell (1,2) = %v, want 12", got)
	}
	if field.Stats.Max != 12 || field.Stats.Min != 0 {
		t.Fatalf("min/max = %v/%v, want 0/12", field.Stats.Min, field.Stats.Max)
	}
}

func TestFieldFromImageGray16KeepsRange(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.SetGray16(0, 0, color.Gray16{Y: 0})
	img.SetGray16(1, 0, color.Gray16{Y: 40000})

	field := FieldFromImage(img)

	if field.Kind != KindTemperature {
		t.Fatalf("kind %v, want %v", field.Kind, KindTemperature)
	}
	if field.Stats.Max != 40000 {
		t.Fatalf("max = %v, want 40000 (16-bit range must survive)", field.Stats.Max)
	}
}

func TestFieldFromImageColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 255, B: 0, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{R: 0, G: 0, B: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 7, G: 8, B: 9, A: 0})

	field := FieldFromImage(img)

	if field.Kind != KindDisplay {
		t.Fatalf("kind %v, want %v", field.Kind, KindDisplay)
	}
	if len(field.RGB) != 2*2*3 {
		t.Fatalf("RGB length %d, want 12", len(field.RGB))
	}
	if field.RGB[0] != 255 || field.RGB[1] != 0 || field.RGB[2] != 0 {
		t.Fatalf("pixel (0,0) = %v, want pure red", field.RGB[0:3])
	}
	// Alpha is dropped, not premultiplied away.
	if field.RGB[9] != 7 || field.RGB[10] != 8 || field.RGB[11] != 9 {
		t.Fatalf("pixel (1,1) = %v, want {7 8 9}", field.RGB[9:12])
	}
}

func TestLoadImagePNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	path := filepath.Join(t.TempDir(), "scan.png")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	if err := png.Encode(out, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("closing png: %v", err)
	}

	field, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if field.Kind != KindDisplay || field.Rows != 2 || field.Cols != 2 {
		t.Fatalf("got kind %v shape %dx%d, want display 2x2", field.Kind, field.Rows, field.Cols)
	}
}

func TestLoadImageUndecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("this is not a png"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if _, err := LoadImage(path); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("error %v, want %v", err, ErrUnreadable)
	}
}
