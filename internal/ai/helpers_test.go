package ai

import (
	"github.com/mrz1836/compliance-copilot/internal/risk"
	"github.com/mrz1836/compliance-copilot/internal/source"
)

const sessionDiff = `diff --git a/internal/auth/session.go b/internal/auth/session.go
index 83db48f..bf269f4 100644
--- a/internal/auth/session.go
+++ b/internal/auth/session.go
@@ -1,2 +1,3 @@
 package auth
-const ttl = 60
+const ttl = 10
+const secure = true
`

func testPR() *source.CanonicalRecord {
	return testPRWithDiff(sessionDiff)
}

func testPRWithDiff(diff string) *source.CanonicalRecord {
	return source.NewRecord(source.RecordFields{
		Kind:              source.KindPR,
		Identifier:        "acme/api#1",
		Title:             "Harden session handling",
		Body:              "Ping jane.doe@example.com before merging.",
		DiffOrDescription: diff,
		Labels:            []string{"severity:critical"},
		ChangedFiles:      []string{"internal/auth/session.go"},
	})
}

func testTicket() *source.CanonicalRecord {
	return source.NewRecord(source.RecordFields{
		Kind:              source.KindTicket,
		Identifier:        "DOC-7",
		Title:             "Typo on welcome page",
		DiffOrDescription: "Second paragraph has a typo.",
		Priority:          "P4",
	})
}

func testFeatures() *risk.Features {
	return &risk.Features{
		SizeScore:             0.09,
		SensitivityScore:      0.9,
		HistoricalDefectScore: 0.5,
		SeverityScore:         1.0,
		Degraded:              []string{risk.SignalHistory},
		MatchedSignals:        []string{"path:internal/auth/session.go (**/auth/**)", "label:severity:critical"},
	}
}
