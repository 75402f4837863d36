package taxonomy

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGenerateID_Deterministic(t *testing.T) {
	id1 := GenerateID("Vendor Inbound", "LIFNR", "VendorId", Modified)
	id2 := GenerateID("Vendor Inbound", "LIFNR", "VendorId", Modified)

	if id1 != id2 {
		t.Errorf("GenerateID not deterministic: %q != %q", id1, id2)
	}
}

func TestGenerateID_Format(t *testing.T) {
	id := GenerateID("Vendor Inbound", "LIFNR", "VendorId", Modified)

	if len(id) != 11 { // "mc-" + 8 hex chars
		t.Errorf("expected ID length 11, got %d: %q", len(id), id)
	}
	if id[:3] != "mc-" {
		t.Errorf("expected ID to start with 'mc-', got %q", id)
	}
}

func TestGenerateID_UniqueForDifferentInputs(t *testing.T) {
	id1 := GenerateID("Vendor Inbound", "LIFNR", "VendorId", Modified)
	id2 := GenerateID("Vendor Inbound", "LIFNR", "VendorId", Deleted)
	id3 := GenerateID("Vendor Outbound", "LIFNR", "VendorId", Modified)

	if id1 == id2 {
		t.Errorf("different change kinds should produce different IDs")
	}
	if id1 == id3 {
		t.Errorf("different tabs should produce different IDs")
	}
}

func TestPriorityOf_Levels(t *testing.T) {
	tests := []struct {
		level ImpactLevel
		want  Priority
	}{
		{High, PriorityHighImpact},
		{Medium, PriorityMediumImpact},
		{Low, PriorityLowImpact},
		{ImpactLevel("bogus"), PriorityLowImpact},
	}
	for _, tt := range tests {
		if got := PriorityOf(tt.level); got != tt.want {
			t.Errorf("PriorityOf(%q) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestCategorizeTab(t *testing.T) {
	tests := []struct {
		name  string
		kinds []ChangeKind
		want  TabCategory
	}{
		{"empty", nil, CategoryUnchanged},
		{"unchanged only", []ChangeKind{Unchanged, Unchanged}, CategoryUnchanged},
		{"additions", []ChangeKind{Added, Unchanged}, CategoryAdditionsOnly},
		{"deletions", []ChangeKind{Deleted}, CategoryDeletionsOnly},
		{"modifications", []ChangeKind{Modified, Modified}, CategoryModificationsOnly},
		{"mixed", []ChangeKind{Added, Deleted}, CategoryMixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ms []MappingChange
			for _, k := range tt.kinds {
				ms = append(ms, MappingChange{Kind: k})
			}
			if got := CategorizeTab(ms); got != tt.want {
				t.Errorf("CategorizeTab = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTab_ChangeSummary(t *testing.T) {
	tab := Tab{Mappings: []MappingChange{
		{Kind: Added}, {Kind: Deleted}, {Kind: Deleted}, {Kind: Unchanged},
	}}
	if got := tab.ChangeSummary(); got != "1 added, 2 deleted" {
		t.Errorf("ChangeSummary = %q", got)
	}
	if got := (Tab{}).ChangeSummary(); got != "no changes" {
		t.Errorf("empty ChangeSummary = %q", got)
	}
}

func TestMappingDocument_Summary(t *testing.T) {
	doc := &MappingDocument{Tabs: []Tab{
		{Name: "A", Category: CategoryMixed, Mappings: []MappingChange{{Kind: Added}, {Kind: Deleted}, {Kind: Unchanged}}},
		{Name: "B", Category: CategoryUnchanged, Mappings: []MappingChange{{Kind: Unchanged}}},
	}}
	s := doc.Summary()
	if s.TotalTabs != 2 || s.ChangedTabs != 1 || s.UnchangedTabs != 1 {
		t.Errorf("tab counts = %+v", s)
	}
	if s.TotalMappings != 4 || s.TotalChanges != 2 {
		t.Errorf("mapping counts = %+v", s)
	}
	if s.TabsByCategory[CategoryMixed] != 1 {
		t.Errorf("expected 1 mixed tab, got %d", s.TabsByCategory[CategoryMixed])
	}
	if _, ok := doc.TabByName("a"); !ok {
		t.Error("TabByName should be case-insensitive")
	}
}

func TestMappingChange_HasFields(t *testing.T) {
	if (MappingChange{SourceField: "  "}).HasFields() {
		t.Error("blank source and target should not count as fields")
	}
	if !(MappingChange{TargetField: "VendorId"}).HasFields() {
		t.Error("target-only mapping should count as having fields")
	}
}

func TestMappingChange_DifferenceSignal(t *testing.T) {
	tests := []struct {
		name   string
		change MappingChange
		want   MatchSignal
	}{
		{"deleted", MappingChange{Kind: Deleted, ModifiedFields: []string{"source_sample_data"}}, ""},
		{"sample wins", MappingChange{Kind: Modified, ModifiedFields: []string{"Target Field", "source_sample_data"}}, SignalSampleData},
		{"field name", MappingChange{Kind: Modified, ModifiedFields: []string{"Source Canonical Name", "Target Field"}}, SignalFieldName},
		{"canonical", MappingChange{Kind: Modified, ModifiedFields: []string{"Target Canonical Name"}}, SignalCanonicalName},
		{"other column", MappingChange{Kind: Modified, ModifiedFields: []string{"transformation_rule"}}, ""},
		{"column named like a field", MappingChange{Kind: Modified, ModifiedFields: []string{"Business Rule Name"}}, ""},
		{"column mentioning sample", MappingChange{Kind: Modified, ModifiedFields: []string{"sample_size_note"}}, ""},
		{"alias spelling", MappingChange{Kind: Modified, ModifiedFields: []string{"source-field"}}, SignalFieldName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.change.DifferenceSignal(); got != tt.want {
				t.Errorf("DifferenceSignal = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocation_TextRoundTrip(t *testing.T) {
	for _, loc := range []Location{{Kind: InDescription}, {Kind: InPrecondition}, StepLocation(3)} {
		b, err := loc.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got Location
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != loc {
			t.Errorf("round trip %v -> %v", loc, got)
		}
	}

	var bad Location
	if err := bad.UnmarshalText([]byte("step#zero")); err == nil {
		t.Error("expected error for malformed step location")
	}
}

func TestLocation_Less(t *testing.T) {
	desc := Location{Kind: InDescription}
	pre := Location{Kind: InPrecondition}
	if !desc.Less(pre) || !pre.Less(StepLocation(1)) || !StepLocation(1).Less(StepLocation(2)) {
		t.Error("expected description < precondition < step#1 < step#2")
	}
}

func TestFieldMatch_JSONLocation(t *testing.T) {
	fm := FieldMatch{MappingID: "mc-1", TestCaseID: "TC-1", Confidence: 1, Location: StepLocation(2), Signal: SignalFieldName}
	b, err := json.Marshal(fm)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"location":"step#2"`) {
		t.Errorf("expected step#2 location in JSON, got %s", b)
	}
}

func TestMetadata_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Metadata{ToolVersion: "dev"})
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	if !strings.Contains(out, `"duration_ms":0`) {
		t.Errorf("expected duration_ms in %s", out)
	}
	if strings.Contains(out, "timestamp") {
		t.Errorf("zero timestamp should be omitted: %s", out)
	}
}

func TestMatchSignal_Outranks(t *testing.T) {
	if !SignalSampleData.Outranks(SignalFieldName) {
		t.Error("sample data should outrank field name")
	}
	if !SignalFieldName.Outranks(SignalCanonicalName) {
		t.Error("field name should outrank canonical name")
	}
	if SignalCanonicalName.Outranks(SignalFieldName) {
		t.Error("canonical name should not outrank field name")
	}
}
