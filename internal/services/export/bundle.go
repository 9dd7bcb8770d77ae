package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/xelth-com/sisifo/internal/models"
)

// Opener reads stored evidence by key
type Opener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Bundle writes a ZIP holding parte_<id>.pdf and every evidence file under
// evidencias/. Evidence that can no longer be opened is skipped and listed
// in faltantes.txt.
func Bundle(ctx context.Context, w io.Writer, r *models.Report, link string, files Opener) error {
	doc, err := ReportPDF(r, link)
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	zw := zip.NewWriter(w)
	pdfEntry, err := zw.Create(fmt.Sprintf("parte_%d.pdf", r.ID))
	if err != nil {
		return err
	}
	if _, err := pdfEntry.Write(doc); err != nil {
		return err
	}

	var missing []string
	for i, ev := range r.Evidence {
		if err := copyEvidence(ctx, zw, files, i+1, ev); err != nil {
			log.Printf("⚠️ Bundle for parte #%d: evidence %s: %v", r.ID, ev.Path, err)
			missing = append(missing, ev.OriginalName)
		}
	}
	if len(missing) > 0 {
		note, err := zw.Create("faltantes.txt")
		if err != nil {
			return err
		}
		if _, err := io.WriteString(note, strings.Join(missing, "\n")+"\n"); err != nil {
			return err
		}
	}
	return zw.Close()
}

func copyEvidence(ctx context.Context, zw *zip.Writer, files Opener, n int, ev models.Evidence) error {
	src, err := files.Open(ctx, ev.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.Create(path.Join("evidencias", fmt.Sprintf("%02d_%s", n, entryName(ev))))
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

// entryName keeps the uploaded name but never a directory part
func entryName(ev models.Evidence) string {
	name := path.Base(strings.ReplaceAll(ev.OriginalName, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = path.Base(ev.Path)
	}
	return name
}
