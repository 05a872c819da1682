package ingest

import (
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
)

type multipartSource struct {
	fh *multipart.FileHeader
}

// FromMultipart adapta los archivos de un formulario multipart.
func FromMultipart(files []*multipart.FileHeader) []Source {
	out := make([]Source, 0, len(files))
	for _, fh := range files {
		if fh == nil {
			continue
		}
		out = append(out, multipartSource{fh: fh})
	}
	return out
}

func (s multipartSource) Name() string { return s.fh.Filename }

func (s multipartSource) MIMEType() string { return s.fh.Header.Get("Content-Type") }

func (s multipartSource) Open() (io.ReadCloser, error) { return s.fh.Open() }

// FileSource es un archivo local; el tipo declarado sale de la extensión.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return filepath.Base(s.Path) }

func (s FileSource) MIMEType() string { return mime.TypeByExtension(filepath.Ext(s.Path)) }

func (s FileSource) Open() (io.ReadCloser, error) { return os.Open(s.Path) }
