package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"footprint-mirror/internal/domain"
)

const defaultConcurrency = 4

var ErrEmptyFile = errors.New("empty file")

// Source es un archivo elegido por el usuario con su MIME type declarado.
type Source interface {
	Name() string
	MIMEType() string
	Open() (io.ReadCloser, error)
}

// Result es el resultado por archivo: Image solo es válido si Err es nil.
type Result struct {
	Name  string
	Image domain.UserImage
	Err   error
}

func (r Result) OK() bool { return r.Err == nil }

// Images devuelve las imágenes exitosas respetando el orden de selección.
func Images(results []Result) []domain.UserImage {
	out := make([]domain.UserImage, 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, r.Image)
		}
	}
	return out
}

// Ingest lee cada archivo de forma concurrente y devuelve un Result por Source,
// en el mismo orden. Un archivo que falla no afecta al resto.
func Ingest(ctx context.Context, files []Source, concurrency int) []Result {
	results := make([]Result, len(files))
	if len(files) == 0 {
		return results
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, f := range files {
		g.Go(func() error {
			img, err := readOne(gctx, f)
			results[i] = Result{Name: f.Name(), Image: img, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func readOne(ctx context.Context, f Source) (domain.UserImage, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserImage{}, err
	}
	rc, err := f.Open()
	if err != nil {
		return domain.UserImage{}, fmt.Errorf("open %s: %w", f.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.UserImage{}, fmt.Errorf("read %s: %w", f.Name(), err)
	}
	if len(data) == 0 {
		return domain.UserImage{}, fmt.Errorf("%s: %w", f.Name(), ErrEmptyFile)
	}

	return domain.UserImage{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: resolveMIMEType(f.MIMEType(), data),
	}, nil
}

// resolveMIMEType usa el tipo declarado por el archivo. Solo si falta se detecta por contenido.
func resolveMIMEType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.EqualFold(declared, "application/octet-stream") {
		return declared
	}
	return mimetype.Detect(data).String()
}
