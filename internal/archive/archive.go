// Package archive imports network traces from YAML archive files into the
// trace store.
//
// An archive file holds one or more traces:
//
//	traces:
//	  - name: links
//	    kind: links
//	    min_time: 0
//	    max_time: 100
//	    max_update_interval: 10
//	    initial:
//	      links: [{id1: 1, id2: 2}]
//	    events:
//	      - {time: 5, id1: 2, id2: 3, type: up}
//
// Files are checked against an embedded CUE schema before decoding, and
// each file is imported in one store transaction: a file either loads
// completely or leaves the store untouched.
package archive

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/netreplay/internal/ir"
	"github.com/roach88/netreplay/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// LoadMode controls how errors are handled when loading several archives.
type LoadMode int

const (
	// LoadModeFailFast stops on the first archive that fails.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll skips failing archives and reports all errors.
	LoadModeCollectAll
)

// Result lists what one archive file contributed to the store.
type Result struct {
	Path   string
	Traces []string
	Events int
}

// Load parses the archive at path and imports its traces into st.
func Load(ctx context.Context, st *store.Store, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Path: path, Code: ErrCodeNotFound, Message: "archive not found", Err: err}
	}
	if err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeReadFailed, Message: "reading archive", Err: err}
	}

	traces, err := Parse(path, data)
	if err != nil {
		return nil, err
	}

	if err := st.ImportTraces(ctx, traces); err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeStoreFailed, Message: "importing traces", Err: err}
	}

	res := &Result{Path: path}
	for _, td := range traces {
		res.Traces = append(res.Traces, td.Info.Name)
		res.Events += len(td.Events)
	}
	return res, nil
}

// LoadAll loads several archives in order. With LoadModeFailFast it stops
// at the first failure; with LoadModeCollectAll it skips failing files and
// returns every error alongside the archives that did load.
func LoadAll(ctx context.Context, st *store.Store, paths []string, mode LoadMode) ([]*Result, []error) {
	var (
		results []*Result
		errs    []error
	)
	for _, path := range paths {
		res, err := Load(ctx, st, path)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return results, errs
			}
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// Parse validates and decodes archive content. path is used in errors only.
func Parse(path string, data []byte) ([]store.TraceData, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeParseFailed, Message: "invalid YAML", Err: err}
	}
	if err := validateSchema(doc); err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeSchema, Message: "archive does not match schema", Err: err}
	}

	var file archiveFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeParseFailed, Message: "decoding archive", Err: err}
	}

	traces := make([]store.TraceData, 0, len(file.Traces))
	for i, doc := range file.Traces {
		td, err := doc.toTraceData()
		if err != nil {
			return nil, &LoadError{Path: path, Code: ErrCodeInvalidTrace, Message: fmt.Sprintf("trace %d (%s)", i, doc.Name), Err: err}
		}
		if err := td.Validate(); err != nil {
			return nil, &LoadError{Path: path, Code: ErrCodeInvalidTrace, Message: fmt.Sprintf("trace %d (%s)", i, doc.Name), Err: err}
		}
		traces = append(traces, td)
	}
	return traces, nil
}

// validateSchema unifies the document with #Archive and requires a
// concrete result.
func validateSchema(doc any) error {
	if doc == nil {
		return fmt.Errorf("empty archive")
	}
	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	archive := schema.LookupPath(cue.ParsePath("#Archive"))
	value := archive.Unify(cctx.Encode(doc))
	return value.Validate(cue.Concrete(true))
}

type archiveFile struct {
	Traces []traceDoc `yaml:"traces"`
}

type traceDoc struct {
	Name              string    `yaml:"name"`
	Kind              string    `yaml:"kind"`
	Description       string    `yaml:"description"`
	MinTime           *int64    `yaml:"min_time"`
	MaxTime           *int64    `yaml:"max_time"`
	MaxUpdateInterval int64     `yaml:"max_update_interval"`
	Initial           yaml.Node `yaml:"initial"`
	Events            yaml.Node `yaml:"events"`
}

type linkDoc struct {
	ID1 int64 `yaml:"id1"`
	ID2 int64 `yaml:"id2"`
}

type groupDoc struct {
	GID     int64   `yaml:"gid"`
	Members []int64 `yaml:"members"`
}

type presenceInitialDoc struct {
	Nodes []int64 `yaml:"nodes"`
}

type linkInitialDoc struct {
	Links []linkDoc `yaml:"links"`
}

type groupInitialDoc struct {
	Groups []groupDoc `yaml:"groups"`
}

type presenceEventDoc struct {
	Time int64  `yaml:"time"`
	Node int64  `yaml:"node"`
	Type string `yaml:"type"`
}

type linkEventDoc struct {
	Time int64  `yaml:"time"`
	ID1  int64  `yaml:"id1"`
	ID2  int64  `yaml:"id2"`
	Type string `yaml:"type"`
}

type groupEventDoc struct {
	Time    int64   `yaml:"time"`
	GID     int64   `yaml:"gid"`
	Type    string  `yaml:"type"`
	Members []int64 `yaml:"members"`
}

func (d traceDoc) info() (ir.TraceInfo, error) {
	kind, err := ir.ParseKind(d.Kind)
	if err != nil {
		return ir.TraceInfo{}, err
	}
	info := ir.TraceInfo{
		Name:              d.Name,
		Kind:              kind,
		Description:       d.Description,
		MaxUpdateInterval: ir.Time(d.MaxUpdateInterval),
	}
	if d.MinTime != nil {
		info.MinTime = ir.Known(ir.Time(*d.MinTime))
	}
	if d.MaxTime != nil {
		info.MaxTime = ir.Known(ir.Time(*d.MaxTime))
	}
	return info, nil
}

func (d traceDoc) toTraceData() (store.TraceData, error) {
	info, err := d.info()
	if err != nil {
		return store.TraceData{}, err
	}
	td := store.TraceData{Info: info}
	origin := info.Origin()

	switch info.Kind {
	case ir.KindPresence:
		var init presenceInitialDoc
		var events []presenceEventDoc
		if err := decodeNodes(d, &init, &events); err != nil {
			return td, err
		}
		td.Initial = ir.PresenceSnapshot{Time: origin, Nodes: ir.NewPresenceSet(ir.PresenceSnapshot{Nodes: nodeIDs(init.Nodes)}).Nodes()}
		for _, e := range events {
			typ, err := ir.ParsePresenceEventType(e.Type)
			if err != nil {
				return td, err
			}
			td.Events = append(td.Events, ir.PresenceEvent{Time: ir.Time(e.Time), Node: ir.NodeID(e.Node), Type: typ})
		}

	case ir.KindLinks:
		var init linkInitialDoc
		var events []linkEventDoc
		if err := decodeNodes(d, &init, &events); err != nil {
			return td, err
		}
		links := make([]ir.Link, 0, len(init.Links))
		for _, l := range init.Links {
			if l.ID1 == l.ID2 {
				return td, fmt.Errorf("self link on node %d", l.ID1)
			}
			links = append(links, ir.NewLink(ir.NodeID(l.ID1), ir.NodeID(l.ID2)))
		}
		td.Initial = ir.NewLinkSet(ir.LinkSnapshot{Links: links}).Snapshot(origin)
		for _, e := range events {
			typ, err := ir.ParseLinkEventType(e.Type)
			if err != nil {
				return td, err
			}
			if e.ID1 == e.ID2 {
				return td, fmt.Errorf("self link on node %d at %d", e.ID1, e.Time)
			}
			td.Events = append(td.Events, ir.LinkEvent{
				Time: ir.Time(e.Time),
				Link: ir.NewLink(ir.NodeID(e.ID1), ir.NodeID(e.ID2)),
				Type: typ,
			})
		}

	case ir.KindGroups:
		var init groupInitialDoc
		var events []groupEventDoc
		if err := decodeNodes(d, &init, &events); err != nil {
			return td, err
		}
		groups := make([]ir.Group, 0, len(init.Groups))
		for _, g := range init.Groups {
			groups = append(groups, ir.Group{GID: g.GID, Members: nodeIDs(g.Members)})
		}
		td.Initial = ir.NewGroupSet(ir.GroupSnapshot{Groups: groups}).Snapshot(origin)
		for _, e := range events {
			typ, err := ir.ParseGroupEventType(e.Type)
			if err != nil {
				return td, err
			}
			td.Events = append(td.Events, ir.GroupEvent{
				Time:    ir.Time(e.Time),
				GID:     e.GID,
				Type:    typ,
				Members: nodeIDs(e.Members),
			})
		}
	}
	return td, nil
}

// decodeNodes decodes the initial and events nodes when present.
func decodeNodes(d traceDoc, init, events any) error {
	if !d.Initial.IsZero() {
		if err := d.Initial.Decode(init); err != nil {
			return fmt.Errorf("initial: %w", err)
		}
	}
	if !d.Events.IsZero() {
		if err := d.Events.Decode(events); err != nil {
			return fmt.Errorf("events: %w", err)
		}
	}
	return nil
}

func nodeIDs(ids []int64) []ir.NodeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]ir.NodeID, len(ids))
	for i, id := range ids {
		out[i] = ir.NodeID(id)
	}
	return out
}
