package report_generator

import (
	"fmt"
	"time"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type Generator struct{}

func New() *Generator {
	return &Generator{}
}

// ExportSummary renders the PDF cover sheet of a bulk export: one line per
// exported document plus a footer with the job id and timestamp.
func (g *Generator) ExportSummary(jobID string, docs []*domain.Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(10).
		WithTopMargin(15).
		WithRightMargin(10).
		Build()

	m := maroto.New(cfg)

	m.AddRows(
		row.New(12).Add(
			text.NewCol(12, "Document Export Summary", props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Align: align.Center,
			}),
		),
		row.New(8).Add(
			text.NewCol(12, fmt.Sprintf("Job %s: %d document(s), %s",
				jobID, len(docs), time.Now().UTC().Format(time.RFC3339)), props.Text{
				Size:  9,
				Align: align.Center,
			}),
		),
	)

	m.AddRow(8,
		text.NewCol(5, "Filename", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Scheme", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Status", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Confidence", props.Text{Style: fontstyle.Bold, Size: 9}),
	)

	for _, doc := range docs {
		m.AddRow(6,
			text.NewCol(5, doc.Filename, props.Text{Size: 8}),
			text.NewCol(3, doc.SchemeID, props.Text{Size: 8}),
			text.NewCol(2, string(doc.Status), props.Text{Size: 8}),
			text.NewCol(2, fmt.Sprintf("%.2f", doc.Confidence), props.Text{Size: 8}),
		)
	}

	if len(docs) == 0 {
		m.AddRow(6, col.New(12))
	}

	document, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate export summary: %w", err)
	}

	return document.GetBytes(), nil
}
