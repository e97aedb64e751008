// Package imagesink writes a finished render to stdout, a local file, or a
// GCS object.
package imagesink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"rtweekend/rgbimage"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

type Format int

const (
	FormatPPM Format = iota
	FormatPNG
)

func (f Format) String() string {
	switch f {
	case FormatPPM:
		return "ppm"
	case FormatPNG:
		return "png"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/x-portable-pixmap"
}

// FormatFor picks the encoding for dest from its extension.  Anything that
// isn't .png is written as PPM.
func FormatFor(dest string) Format {
	if strings.EqualFold(path.Ext(dest), ".png") {
		return FormatPNG
	}
	return FormatPPM
}

func encode(f Format, img *rgbimage.Image, w io.Writer) error {
	if f == FormatPNG {
		return rgbimage.WritePNG(img, w)
	}
	return rgbimage.WritePPM(img, w)
}

// ParseGCSURL splits gs://bucket/object into its parts.
func ParseGCSURL(dest string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(dest, "gs://")
	if rest == dest {
		return "", "", fmt.Errorf("%q is not a gs:// URL", dest)
	}

	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%q should look like gs://bucket/object", dest)
	}
	return parts[0], parts[1], nil
}

// Write encodes img to dest.  An empty dest or "-" means stdout.  clientOpts
// are only used for gs:// destinations.
func Write(ctx context.Context, dest string, img *rgbimage.Image, clientOpts ...option.ClientOption) error {
	tracer := otel.Tracer("rtweekend/imagesink")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Write")
	defer span.End()

	format := FormatFor(dest)
	span.SetAttributes(attribute.String("dest", dest), attribute.String("format", format.String()))

	var err error
	switch {
	case dest == "" || dest == "-":
		err = encode(format, img, os.Stdout)
	case strings.HasPrefix(dest, "gs://"):
		err = writeGCS(ctx, dest, format, img, clientOpts)
	default:
		err = WriteFile(dest, img)
	}
	if err != nil {
		err = fmt.Errorf("while writing image to %q: %w", dest, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// WriteFile encodes img to a local file, in the format named by its
// extension.
func WriteFile(name string, img *rgbimage.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("while creating output file: %w", err)
	}

	if err := encode(FormatFor(name), img, f); err != nil {
		f.Close()
		return fmt.Errorf("while encoding: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing output file: %w", err)
	}
	return nil
}

func writeGCS(ctx context.Context, dest string, format Format, img *rgbimage.Image, clientOpts []option.ClientOption) error {
	bucket, object, err := ParseGCSURL(dest)
	if err != nil {
		return err
	}

	gcs, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf("while creating GCS client: %w", err)
	}
	defer gcs.Close()

	// Cancelling the writer's context abandons the upload instead of
	// committing a truncated object.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := gcs.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = format.ContentType()

	if err := encode(format, img, w); err != nil {
		return fmt.Errorf("while writing to object writer: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("while closing object writer: %w", err)
	}
	return nil
}
