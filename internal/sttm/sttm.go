// Package sttm extracts the canonical mapping document from STTM
// difference reports.
package sttm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/unbound-force/sttm-impact/internal/ingest"
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// Format versions handled by the built-in adapters.
const (
	FormatCurrent = "Excel Comparison Tool v2.0"
	FormatLegacy  = "Legacy STTM v1.0"
)

// mappingGroups lists the mapping lists of a tab and their change kind.
var mappingGroups = []struct {
	keys []string
	kind taxonomy.ChangeKind
}{
	{[]string{"added_mappings", "added"}, taxonomy.Added},
	{[]string{"deleted_mappings", "deleted"}, taxonomy.Deleted},
	{[]string{"modified_mappings", "modified"}, taxonomy.Modified},
	{[]string{"unchanged_mappings", "unchanged"}, taxonomy.Unchanged},
}

// NewRegistry returns a registry with the built-in adapters, current
// format first.
func NewRegistry() *ingest.Registry[*taxonomy.MappingDocument] {
	return ingest.NewRegistry[*taxonomy.MappingDocument](CurrentAdapter{}, LegacyAdapter{})
}

// Parse extracts a mapping document with the built-in adapters.
func Parse(raw []byte) (*taxonomy.MappingDocument, error) {
	return NewRegistry().Extract(raw)
}

// Load reads and extracts the mapping document at path.
func Load(path string) (*taxonomy.MappingDocument, error) {
	return NewRegistry().ExtractFile(path)
}

// CurrentAdapter handles reports with report_metadata and
// detailed_changes sections.
type CurrentAdapter struct{}

// Name implements ingest.Adapter.
func (CurrentAdapter) Name() string { return FormatCurrent }

// Supports implements ingest.Adapter.
func (CurrentAdapter) Supports(raw []byte) bool {
	if !gjson.ValidBytes(raw) {
		return false
	}
	r := gjson.ParseBytes(raw)
	return r.Get("report_metadata").Exists() && r.Get("detailed_changes").Exists()
}

// Extract implements ingest.Adapter.
func (CurrentAdapter) Extract(raw []byte) (*taxonomy.MappingDocument, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("invalid JSON")
	}
	dc := gjson.GetBytes(raw, "detailed_changes")
	doc := &taxonomy.MappingDocument{FormatVersion: FormatCurrent}
	for _, section := range []string{"changed_tabs", "unchanged_tabs"} {
		for _, t := range dc.Get(section).Array() {
			doc.Tabs = append(doc.Tabs, extractTab(
				t.Get("tab_name").String(),
				t.Get("change_type").String(),
				t,
				t.Get("mappings"),
			))
		}
	}
	assignIDs(doc)
	return doc, nil
}

// LegacyAdapter handles reports keyed by tab name under changed_tabs
// and unchanged_tabs objects.
type LegacyAdapter struct{}

// Name implements ingest.Adapter.
func (LegacyAdapter) Name() string { return FormatLegacy }

// Supports implements ingest.Adapter.
func (LegacyAdapter) Supports(raw []byte) bool {
	if !gjson.ValidBytes(raw) {
		return false
	}
	r := gjson.ParseBytes(raw)
	return r.Get("changed_tabs").IsObject() && r.Get("unchanged_tabs").Exists()
}

// Extract implements ingest.Adapter.
func (LegacyAdapter) Extract(raw []byte) (*taxonomy.MappingDocument, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("invalid JSON")
	}
	r := gjson.ParseBytes(raw)
	doc := &taxonomy.MappingDocument{FormatVersion: FormatLegacy}
	r.Get("changed_tabs").ForEach(func(name, t gjson.Result) bool {
		doc.Tabs = append(doc.Tabs, extractTab(name.String(), t.Get("type").String(), t, t))
		return true
	})
	unchanged := r.Get("unchanged_tabs")
	switch {
	case unchanged.IsObject():
		unchanged.ForEach(func(name, t gjson.Result) bool {
			doc.Tabs = append(doc.Tabs, extractTab(name.String(), string(taxonomy.CategoryUnchanged), t, t))
			return true
		})
	case unchanged.IsArray():
		for _, name := range unchanged.Array() {
			doc.Tabs = append(doc.Tabs, taxonomy.Tab{Name: name.String(), Category: taxonomy.CategoryUnchanged})
		}
	}
	assignIDs(doc)
	return doc, nil
}

func extractTab(name, declared string, tab, mappings gjson.Result) taxonomy.Tab {
	t := taxonomy.Tab{
		Name:         strings.TrimSpace(name),
		SourceSystem: tab.Get("source_system").String(),
		TargetSystem: tab.Get("target_system").String(),
	}
	if t.Name == "" {
		t.Name = "Unknown"
	}
	for _, g := range mappingGroups {
		for _, key := range g.keys {
			for _, m := range mappings.Get(key).Array() {
				t.Mappings = append(t.Mappings, extractMapping(t.Name, g.kind, m))
			}
		}
	}
	t.Category = category(declared, t.Mappings)
	return t
}

func extractMapping(tab string, kind taxonomy.ChangeKind, m gjson.Result) taxonomy.MappingChange {
	fields := objectMap(m.Get("mapping_fields"))
	mc := taxonomy.MappingChange{
		Tab:           tab,
		SourceField:   first(fields, taxonomy.SourceFieldKeys),
		TargetField:   first(fields, taxonomy.TargetFieldKeys),
		CanonicalName: first(fields, taxonomy.CanonicalNameKeys),
		SampleData:    first(fields, taxonomy.SampleDataKeys),
		Kind:          kind,
	}
	if kind != taxonomy.Modified {
		return mc
	}

	mc.OriginalValues = make(map[string]string)
	mc.NewValues = make(map[string]string)
	m.Get("field_changes").ForEach(func(k, v gjson.Result) bool {
		field := k.String()
		mc.ModifiedFields = append(mc.ModifiedFields, field)
		if v.IsObject() {
			mc.OriginalValues[field] = v.Get("old_value").String()
			mc.NewValues[field] = v.Get("new_value").String()
		} else {
			mc.NewValues[field] = v.String()
		}
		return true
	})
	// A changed sample value is matched in its new form.
	for _, k := range taxonomy.SampleDataKeys {
		if v := mc.NewValues[k]; v != "" {
			mc.SampleData = v
			break
		}
	}
	return mc
}

// category returns the declared tab category when it is known and
// otherwise derives it from the mappings.
func category(declared string, mappings []taxonomy.MappingChange) taxonomy.TabCategory {
	switch c := taxonomy.TabCategory(strings.ToLower(strings.TrimSpace(declared))); c {
	case taxonomy.CategoryMixed, taxonomy.CategoryAdditionsOnly, taxonomy.CategoryDeletionsOnly,
		taxonomy.CategoryModificationsOnly, taxonomy.CategoryUnchanged:
		return c
	}
	return taxonomy.CategorizeTab(mappings)
}

// assignIDs gives every mapping its stable ID, suffixing repeats so IDs
// are unique within the document.
func assignIDs(doc *taxonomy.MappingDocument) {
	seen := make(map[string]int)
	for i := range doc.Tabs {
		t := &doc.Tabs[i]
		for j := range t.Mappings {
			m := &t.Mappings[j]
			id := taxonomy.GenerateID(t.Name, m.SourceField, m.TargetField, m.Kind)
			seen[id]++
			if n := seen[id]; n > 1 {
				id = id + "-" + strconv.Itoa(n)
			}
			m.ID = id
		}
	}
}

func objectMap(obj gjson.Result) map[string]string {
	out := make(map[string]string)
	obj.ForEach(func(k, v gjson.Result) bool {
		if v.Type != gjson.Null {
			out[k.String()] = strings.TrimSpace(v.String())
		}
		return true
	})
	return out
}

// first returns the first non-empty value among keys.
func first(m map[string]string, keys []string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

// Describe renders a one-line summary of doc.
func Describe(doc *taxonomy.MappingDocument) string {
	s := doc.Summary()
	return fmt.Sprintf("%s: %d tabs (%d changed), %d mappings, %d changes",
		doc.FormatVersion, s.TotalTabs, s.ChangedTabs, s.TotalMappings, s.TotalChanges)
}
