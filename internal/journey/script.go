package journey

import (
	"strconv"
	"time"

	"github.com/xkilldash9x/decoy-cli/internal/interact"
)

// Script returns the fixed interaction sequence: a start control, two rounds
// of three sequenced controls, a third round shifted to the second button
// slot, and the final payout link. finalDwell is how long step 10 waits
// before its click, for pages that delay the actionable control.
//
// Selectors are structural paths with attribute fallbacks so a step survives
// markup churn that keeps the class vocabulary but reshuffles the tree.
func Script(finalDwell time.Duration) []interact.Step {
	start := interact.Step{
		Primary:       interact.Path("div.start_btn"),
		Fallbacks:     []interact.TargetDescriptor{interact.Attr("class~=start_btn")},
		SuppressAfter: true,
	}
	firstButton := interact.Step{
		Primary:       interact.Path("div.btn:nth-child(1)"),
		Fallbacks:     []interact.TargetDescriptor{interact.Path("div.btn")},
		SuppressAfter: true,
	}
	firstLink := interact.Step{
		Primary:       interact.Path("a.btn:nth-child(1)"),
		Fallbacks:     []interact.TargetDescriptor{interact.Path("a.btn")},
		SuppressAfter: true,
	}

	steps := []interact.Step{
		start,       // step 1
		firstButton, // step 2
		firstLink,   // step 3
		start,       // step 4
		firstButton, // step 5
		firstLink,   // step 6
		start,       // step 7
		{
			Primary:       interact.Path("div.btn:nth-child(2)"),
			Fallbacks:     []interact.TargetDescriptor{interact.Path("div.btn:nth-of-type(2)")},
			SuppressAfter: true,
		}, // step 8
		{
			Primary:       interact.Path("a.btn:nth-child(2)"),
			Fallbacks:     []interact.TargetDescriptor{interact.Path("a.btn:nth-of-type(2)")},
			SuppressAfter: true,
		}, // step 9
		{
			Primary:       interact.Path("a.get-link"),
			Fallbacks:     []interact.TargetDescriptor{interact.Attr("class~=get-link")},
			PreDwell:      finalDwell,
			SuppressAfter: true,
		}, // step 10
	}
	for i := range steps {
		steps[i].Label = "step " + strconv.Itoa(i+1)
	}
	return steps
}
