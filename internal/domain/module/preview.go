package module

import (
	"context"
	"fmt"
	"io"
)

// PreviewLeafID is the reserved ID of the auto-injected report previewer.
const PreviewLeafID = "report-previewer"

// PreviewActions are the fixed actions the previewer exposes.
var PreviewActions = []string{"download", "reset"}

// WithReporterPreview returns a tree with a report-previewer leaf appended
// when at least one leaf declared reporter use and none already provides a
// preview. The input tree is never mutated.
func WithReporterPreview(t Tree) Tree {
	if !t.UsesReporter() || t.HasLeaf(PreviewLeafID) {
		return t
	}
	out := Tree{Title: t.Title, Nodes: append([]Node(nil), t.Nodes...)}
	out.Nodes = append(out.Nodes, Node{Leaf: &Leaf{
		ID:           PreviewLeafID,
		Title:        "Report previewer",
		UsesReporter: true,
		Module:       NewPreviewModule(),
	}})
	return out
}

// PreviewModule is the pseudo-module behind the injected previewer leaf. It
// holds no data of its own; download and reset delegate to the session
// reporter it was activated with.
type PreviewModule struct {
	reporter Reporter
}

// NewPreviewModule creates an inactive preview module.
func NewPreviewModule() *PreviewModule {
	return &PreviewModule{}
}

// Activate captures the session reporter.
func (m *PreviewModule) Activate(ctx context.Context, act Activation) error {
	if act.Reporter == nil {
		return fmt.Errorf("report previewer activated without reporter")
	}
	m.reporter = act.Reporter
	return nil
}

// Actions returns the fixed previewer actions.
func (m *PreviewModule) Actions() []string {
	return append([]string(nil), PreviewActions...)
}

// HandleAction runs a previewer action. Download writes the report archive
// to w; reset discards collected cards.
func (m *PreviewModule) HandleAction(action string, w io.Writer) error {
	if m.reporter == nil {
		return fmt.Errorf("report previewer not activated")
	}
	switch action {
	case "download":
		return m.reporter.Archive(w)
	case "reset":
		m.reporter.Reset()
		return nil
	default:
		return fmt.Errorf("unknown previewer action %q", action)
	}
}
