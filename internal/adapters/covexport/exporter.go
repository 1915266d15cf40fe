// Package covexport renders coverage reports into exchange formats and stores
// them as blob artifacts.
package covexport

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"simcore/internal/blob"
	"simcore/internal/core"
)

// Format identifies an export encoding.
type Format string

const (
	FormatJSON      Format = "json"
	FormatLCOV      Format = "lcov"
	FormatCobertura Format = "cobertura"
)

// Artifact references a stored export.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Exporter renders coverage reports and persists the result.
type Exporter struct {
	store blob.Store
}

// NewExporter constructs an exporter over the given blob store.
func NewExporter(store blob.Store) *Exporter {
	return &Exporter{store: store}
}

// Export renders the report in the requested format and stores it under
// coverage/<session id>/<export id>.<format>. Every call produces a fresh
// export ID so repeated exports of the same session never collide with an
// existing artifact. Unknown formats fall back to the JSON encoding under the
// requested extension so callers always get an artifact.
func (e *Exporter) Export(ctx context.Context, report core.CoverageReport, format Format) (Artifact, error) {
	if format == "" {
		format = FormatJSON
	}
	payload, contentType, err := render(report, format)
	if err != nil {
		return Artifact{}, err
	}
	key := fmt.Sprintf("coverage/%s/%s.%s", report.Session.ID, newExportID(), format)
	info, err := e.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"coverage_id":  report.Session.ID,
			"execution_id": report.Session.ExecutionID,
			"format":       string(format),
		},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("store artifact: %w", err)
	}
	url := info.URL
	if url == "" {
		if signed, perr := e.store.PresignURL(ctx, key, blob.SignedURLOptions{}); perr == nil {
			url = signed
		}
	}
	logrus.WithFields(logrus.Fields{"coverage": report.Session.ID, "format": format, "key": key}).Info("exported coverage artifact")
	return Artifact{
		Key:         key,
		Format:      format,
		ContentType: contentType,
		SizeBytes:   info.Size,
		URL:         url,
		CreatedAt:   info.LastModified,
	}, nil
}

// newExportID returns 48 bits of UUID-derived randomness as twelve hex
// characters, matching the suffix width of session identifiers.
func newExportID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:12]
}

func render(report core.CoverageReport, format Format) ([]byte, string, error) {
	switch format {
	case FormatLCOV:
		return renderLCOV(report), "text/plain", nil
	case FormatCobertura:
		payload, err := renderCobertura(report)
		if err != nil {
			return nil, "", fmt.Errorf("render cobertura: %w", err)
		}
		return payload, "application/xml", nil
	default:
		payload, err := renderJSON(report)
		if err != nil {
			return nil, "", fmt.Errorf("render json: %w", err)
		}
		return payload, "application/json", nil
	}
}

type jsonReport struct {
	CoverageID   string           `json:"coverage_id"`
	ExecutionID  string           `json:"execution_id"`
	TotalLines   int              `json:"total_lines"`
	CoveredLines int              `json:"covered_lines"`
	Percentage   float64          `json:"coverage_percentage"`
	Files        []jsonFileReport `json:"files"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

type jsonFileReport struct {
	File           string  `json:"file"`
	TotalLines     int     `json:"total_lines"`
	CoveredLines   int     `json:"covered_lines"`
	Percentage     float64 `json:"coverage_percentage"`
	UncoveredLines []int   `json:"uncovered_lines"`
}

func renderJSON(report core.CoverageReport) ([]byte, error) {
	out := jsonReport{
		CoverageID:   report.Session.ID,
		ExecutionID:  report.Session.ExecutionID,
		TotalLines:   report.Session.TotalLines,
		CoveredLines: report.Session.CoveredLines,
		Percentage:   report.Percentage,
		Files:        make([]jsonFileReport, 0, len(report.Files)),
		GeneratedAt:  time.Now().UTC(),
	}
	for _, f := range report.Files {
		out.Files = append(out.Files, jsonFileReport{
			File:           f.File,
			TotalLines:     f.TotalLines,
			CoveredLines:   f.CoveredLines,
			Percentage:     f.Percentage,
			UncoveredLines: f.UncoveredLines,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// renderLCOV emits one record per file. Only uncovered lines are known
// individually, so those get explicit zero-hit DA entries and the summary
// carries the totals.
func renderLCOV(report core.CoverageReport) []byte {
	buf := &bytes.Buffer{}
	for _, f := range report.Files {
		fmt.Fprintf(buf, "TN:\nSF:%s\n", f.File)
		for _, line := range f.UncoveredLines {
			fmt.Fprintf(buf, "DA:%d,0\n", line)
		}
		fmt.Fprintf(buf, "LF:%d\nLH:%d\nend_of_record\n", f.TotalLines, f.CoveredLines)
	}
	return buf.Bytes()
}

type coberturaCoverage struct {
	XMLName      xml.Name        `xml:"coverage"`
	LineRate     float64         `xml:"line-rate,attr"`
	LinesValid   int             `xml:"lines-valid,attr"`
	LinesCovered int             `xml:"lines-covered,attr"`
	Timestamp    int64           `xml:"timestamp,attr"`
	Classes      []coberturaFile `xml:"packages>package>classes>class"`
}

type coberturaFile struct {
	Name     string  `xml:"name,attr"`
	Filename string  `xml:"filename,attr"`
	LineRate float64 `xml:"line-rate,attr"`
}

func renderCobertura(report core.CoverageReport) ([]byte, error) {
	doc := coberturaCoverage{
		LineRate:     report.Percentage / 100,
		LinesValid:   report.Session.TotalLines,
		LinesCovered: report.Session.CoveredLines,
		Timestamp:    time.Now().UTC().Unix(),
		Classes:      make([]coberturaFile, 0, len(report.Files)),
	}
	for _, f := range report.Files {
		doc.Classes = append(doc.Classes, coberturaFile{
			Name:     f.File,
			Filename: f.File,
			LineRate: f.Percentage / 100,
		})
	}
	payload, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), payload...), nil
}
