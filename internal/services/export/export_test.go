package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/services/reports"
	"github.com/xuri/excelize/v2"
)

func sampleReport() *models.Report {
	end := "14:30"
	lat, lng := -12.0464, -77.0428
	return &models.Report{
		ID:              7,
		ReferenceNumber: "000123",
		Date:            "2024-05-01",
		StartTime:       "08:00",
		EndTime:         &end,
		Zone:            "NORTH",
		Shift:           "DAY",
		Place:           "Av. Próceres 123",
		Latitude:        &lat,
		Longitude:       &lng,
		IncidenceType:   "ROBBERY",
		Narrative:       "Sustracción de celular en paradero.",
		Participants: []models.Participant{
			{Name: "Ana Núñez", IDNumber: "44556677", Role: "víctima"},
		},
		Evidence: []models.Evidence{
			{Kind: models.EvidencePhoto, Path: "reports/7/1_a.jpg", OriginalName: "foto.jpg"},
			{Kind: models.EvidenceVideo, Path: "reports/7/2_b.mp4", OriginalName: "../clip.mp4"},
		},
	}
}

func TestReportPDF(t *testing.T) {
	doc, err := ReportPDF(sampleReport(), "http://localhost:3000/partes/7")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))

	open := &models.Report{ID: 8, ReferenceNumber: "X", IncidenceType: "NOISE"}
	doc, err = ReportPDF(open, "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestZoneSummaryPDF(t *testing.T) {
	counts := reports.ZoneCounts{
		models.ZoneNorth: {{IncidenceType: "ROBBERY", Count: 2}},
	}
	doc, err := ZoneSummaryPDF("2024-05-01", "DAY", counts)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestZoneSummaryXLSX(t *testing.T) {
	counts := reports.ZoneCounts{
		models.ZoneSouth: {{IncidenceType: "FIGHT", Count: 1}},
		models.ZoneNorth: {{IncidenceType: "ROBBERY", Count: 2}, {IncidenceType: "NOISE", Count: 1}},
	}
	data, err := ZoneSummaryXLSX("2024-05-01", "DAY", counts)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"Fecha", "2024-05-01", "Turno", "DAY"}, rows[0])
	assert.Equal(t, []string{"Zona", "Incidencia", "Cantidad"}, rows[2])
	assert.Equal(t, []string{"NORTH", "ROBBERY", "2"}, rows[3])
	assert.Equal(t, []string{"NORTH", "NOISE", "1"}, rows[4])
	assert.Equal(t, []string{"SOUTH", "FIGHT", "1"}, rows[5])
}

func TestReportsXLSX(t *testing.T) {
	data, err := ReportsXLSX([]models.Report{*sampleReport()})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	id, err := f.GetCellValue(ReportsSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "7", id)

	state, err := f.GetCellValue(ReportsSheet, "F2")
	require.NoError(t, err)
	assert.Equal(t, "closed", state)

	place, err := f.GetCellValue(ReportsSheet, "J2")
	require.NoError(t, err)
	assert.Equal(t, "Av. Próceres 123", place)
}

type mapOpener map[string]string

func (m mapOpener) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := m[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestBundle(t *testing.T) {
	var buf bytes.Buffer
	files := mapOpener{"reports/7/1_a.jpg": "jpeg-bytes"}

	require.NoError(t, Bundle(context.Background(), &buf, sampleReport(), "", files))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	contents := map[string]string{}
	for _, entry := range zr.File {
		rc, err := entry.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		contents[entry.Name] = string(data)
	}

	assert.Contains(t, contents, "parte_7.pdf")
	assert.True(t, strings.HasPrefix(contents["parte_7.pdf"], "%PDF"))
	assert.Equal(t, "jpeg-bytes", contents["evidencias/01_foto.jpg"])
	assert.Equal(t, "../clip.mp4\n", contents["faltantes.txt"])
	assert.Len(t, contents, 3)
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "clip.mp4", entryName(models.Evidence{OriginalName: "../../clip.mp4"}))
	assert.Equal(t, "x.jpg", entryName(models.Evidence{OriginalName: `C:\fotos\x.jpg`}))
	assert.Equal(t, "2_b.mp4", entryName(models.Evidence{Path: "reports/7/2_b.mp4"}))
}
