package progress

import "testing"

func TestDefaultStageWeightsSumTo100(t *testing.T) {
	total := 0.0
	for _, s := range DefaultStages() {
		total += s.Weight
	}
	if total != 100 {
		t.Fatalf("stage weights sum to %v, want 100", total)
	}
}

func TestDefaultStageOrder(t *testing.T) {
	want := []string{
		StageInitialization,
		StageCourseStructure,
		StagePresentationPlanning,
		StageSlideGeneration,
		StageImageProcessing,
		StagePresentationBuilding,
		StageAudioGeneration,
		StageFinalization,
	}
	stages := DefaultStages()
	if len(stages) != len(want) {
		t.Fatalf("got %d stages, want %d", len(stages), len(want))
	}
	for i, s := range stages {
		if s.ID != want[i] {
			t.Fatalf("stage %d: got %q, want %q", i, s.ID, want[i])
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{45, "45s"},
		{125, "2m 5s"},
		{3725, "1h 2m"},
		{0, "0s"},
		{59.9, "59s"},
		{60, "1m 0s"},
		{3600, "1h 0m"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.seconds); got != c.want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestStageDetailsMergeKeepsExisting(t *testing.T) {
	d := StageDetails{TotalSlides: 10, Message: "started"}
	d.Merge(StageDetails{CurrentSlide: 3})
	if d.TotalSlides != 10 || d.CurrentSlide != 3 || d.Message != "started" {
		t.Fatalf("unexpected merge result: %+v", d)
	}
	d.Merge(StageDetails{Message: "halfway", TotalSlides: 12})
	if d.TotalSlides != 12 || d.Message != "halfway" {
		t.Fatalf("unexpected merge overwrite: %+v", d)
	}
}
