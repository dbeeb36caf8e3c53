package profile

import "testing"

func TestInferArchetypePrimaryFromPhrases(t *testing.T) {
	tests := []struct {
		name      string
		responses []Response
		want      Archetype
	}{
		{"reform-answers", []Response{
			{QuestionID: "v1", Answer: "Making the system fairer for everyone"},
			{QuestionID: "g1", Answer: "Funding structural reform"},
		}, ArchetypeSystemChanger},
		{"community-answers", []Response{
			{QuestionID: "v1", Answer: "Standing by my own community"},
			{QuestionID: "g1", Answer: "Supporting my local community"},
			{QuestionID: "g2", Answer: "Where my friends and family give"},
		}, ArchetypeCommunityBuilder},
		{"faith-answers", []Response{
			{QuestionID: "v1", Answer: "Honoring tradition and faith"},
			{QuestionID: "g2", Answer: "Causes my faith calls me to"},
		}, ArchetypeFaithfulSteward},
		{"evidence-answers", []Response{
			{QuestionID: "v2", Answer: "Care for the most vulnerable"},
			{QuestionID: "g2", Answer: "Evidence and measurable outcomes"},
		}, ArchetypeImpactMaximizer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vector := CalculateMoralVector(tt.responses)
			prof := InferArchetype(tt.responses, vector)
			if prof.Primary != tt.want {
				t.Errorf("primary = %s, want %s", prof.Primary, tt.want)
			}
		})
	}
}

func TestInferArchetypeSecondaryRules(t *testing.T) {
	responses := []Response{
		{QuestionID: "v1", Answer: "Making the system fairer for everyone"},
		{QuestionID: "v2", Answer: "Care for the most vulnerable"},
		{QuestionID: "g1", Answer: "Supporting my local community"},
		{QuestionID: "g2", Answer: "My heart tells me"},
	}
	vector := CalculateMoralVector(responses)
	prof := InferArchetype(responses, vector)

	if len(prof.SecondaryTraits) > 2 {
		t.Fatalf("secondary traits = %d, want ≤2", len(prof.SecondaryTraits))
	}
	for _, s := range prof.SecondaryTraits {
		if s == prof.Primary {
			t.Fatalf("secondary traits must exclude primary %s", prof.Primary)
		}
	}
}

func TestInferArchetypeConfidenceRange(t *testing.T) {
	tests := []struct {
		name      string
		responses []Response
	}{
		{"empty", nil},
		{"sparse", []Response{{QuestionID: "g2", Answer: "My heart tells me"}}},
		{"dense", []Response{
			{QuestionID: "v1", Answer: "Helping people who cannot help themselves"},
			{QuestionID: "v2", Answer: "Care for the most vulnerable"},
			{QuestionID: "v3", Answer: "Protecting the weak is a duty"},
			{QuestionID: "g1", Answer: "Seeing direct impact on specific individuals"},
			{QuestionID: "g2", Answer: "Evidence and measurable outcomes"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vector := CalculateMoralVector(tt.responses)
			prof := InferArchetype(tt.responses, vector)
			if prof.Confidence < 0 || prof.Confidence > 1 {
				t.Errorf("confidence = %.4f, want in [0,1]", prof.Confidence)
			}
			// Saturating form never reaches 1 on finite scores.
			if prof.Confidence == 1 {
				t.Error("confidence must stay below 1")
			}
		})
	}
}

func TestInferArchetypeCauseAlignment(t *testing.T) {
	mapped := []Response{
		{QuestionID: "v1", Answer: "Making the system fairer for everyone"},
		{QuestionID: "g1", Answer: "Funding structural reform"},
	}
	vector := CalculateMoralVector(mapped)
	prof := InferArchetype(mapped, vector)
	if prof.Primary != ArchetypeSystemChanger {
		t.Fatalf("primary = %s, want system_changer", prof.Primary)
	}
	if len(prof.CauseAlignment) == 0 {
		t.Fatal("system_changer should carry a cause alignment map")
	}

	legacy := []Response{
		{QuestionID: "g1", Answer: "Building something that outlasts me"},
	}
	vector = CalculateMoralVector(legacy)
	prof = InferArchetype(legacy, vector)
	if prof.Primary != ArchetypeLegacyBuilder {
		t.Fatalf("primary = %s, want legacy_builder", prof.Primary)
	}
	if len(prof.CauseAlignment) != 0 {
		t.Fatalf("legacy_builder should have an empty alignment map, got %v", prof.CauseAlignment)
	}
}

func TestInferArchetypeDeterministic(t *testing.T) {
	responses := []Response{
		{QuestionID: "v2", Answer: "Freedom to choose beats rules"},
		{QuestionID: "g2", Answer: "My heart tells me"},
	}
	vector := CalculateMoralVector(responses)
	first := InferArchetype(responses, vector)
	for i := 0; i < 10; i++ {
		got := InferArchetype(responses, vector)
		if got.Primary != first.Primary || got.Confidence != first.Confidence {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
		if len(got.SecondaryTraits) != len(first.SecondaryTraits) {
			t.Fatalf("run %d secondary count differs", i)
		}
	}
}
