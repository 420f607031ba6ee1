package filter

// Snapshot is the serializable form of a filter State, persisted in
// bookmarks and restored at registry-build time.
type Snapshot struct {
	AppID   string                 `json:"app_id"`
	Filters map[string][]Predicate `json:"filters"`
}

// Kind classifies a raw bookmark payload.
type Kind int

const (
	// KindValid means the payload already is a Snapshot.
	KindValid Kind = iota
	// KindNeedsNormalization means the payload has a JSON-ish shape that a
	// pure coercion can turn into a Snapshot.
	KindNeedsNormalization
	// KindInvalid means the payload cannot become a Snapshot; restore
	// falls back to the caller-supplied default.
	KindInvalid
)

// Classified is the tagged result of inspecting a raw bookmark payload.
type Classified struct {
	Kind     Kind
	Snapshot Snapshot // set when Kind == KindValid
	Raw      map[string]any
}

// Classify inspects a raw bookmark payload without mutating it.
func Classify(raw any) Classified {
	switch v := raw.(type) {
	case nil:
		return Classified{Kind: KindInvalid}
	case Snapshot:
		return Classified{Kind: KindValid, Snapshot: v}
	case *Snapshot:
		if v == nil {
			return Classified{Kind: KindInvalid}
		}
		return Classified{Kind: KindValid, Snapshot: *v}
	case map[string]any:
		return Classified{Kind: KindNeedsNormalization, Raw: v}
	default:
		return Classified{Kind: KindInvalid}
	}
}

// Normalize coerces a JSON-ish map into a Snapshot. Predicates with unknown
// ops or missing columns are dropped rather than failing the whole restore.
func Normalize(raw map[string]any) (Snapshot, bool) {
	snap := Snapshot{Filters: make(map[string][]Predicate)}
	if appID, ok := raw["app_id"].(string); ok {
		snap.AppID = appID
	}
	filters, ok := raw["filters"].(map[string]any)
	if !ok {
		return Snapshot{}, false
	}
	for dataset, entry := range filters {
		items, ok := entry.([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			fields, ok := item.(map[string]any)
			if !ok {
				continue
			}
			p := Predicate{Dataset: dataset, Op: OpEq}
			if col, ok := fields["column"].(string); ok {
				p.Column = col
			}
			if op, ok := fields["op"].(string); ok {
				p.Op = Op(op)
			}
			p.Value = fields["value"]
			if p.Column == "" || !ValidOp(p.Op) {
				continue
			}
			snap.Filters[dataset] = append(snap.Filters[dataset], p)
		}
	}
	return snap, true
}

// Restore produces a valid State from an optional raw bookmark payload.
// Valid snapshots are used as-is, normalizable shapes are coerced, anything
// else falls back to the supplied default.
func Restore(raw any, def *State) *State {
	classified := Classify(raw)
	switch classified.Kind {
	case KindValid:
		return FromSnapshot(classified.Snapshot, def.AppID())
	case KindNeedsNormalization:
		if snap, ok := Normalize(classified.Raw); ok {
			return FromSnapshot(snap, def.AppID())
		}
	}
	return clone(def)
}

// FromSnapshot materializes a State from a snapshot. The snapshot's app_id
// wins when present; otherwise the fallback namespace is kept.
func FromSnapshot(snap Snapshot, fallbackAppID string) *State {
	appID := snap.AppID
	if appID == "" {
		appID = fallbackAppID
	}
	s := NewState(appID)
	for dataset, preds := range snap.Filters {
		s.Replace(dataset, preds)
	}
	return s
}

func clone(src *State) *State {
	return FromSnapshot(src.Snapshot(), src.AppID())
}
