package state

import "testing"

func TestIsStepAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		state    State
		step     int
		expected bool
	}{
		{name: "movie first step", state: StateCreatingMovie, step: int(MovieStepCode), expected: true},
		{name: "movie last step", state: StateCreatingMovie, step: int(MovieStepVideo), expected: true},
		{name: "movie past last step", state: StateCreatingMovie, step: int(MovieStepVideo) + 1, expected: false},
		{name: "serial publish", state: StateCreatingSerial, step: int(SerialStepPublish), expected: true},
		{name: "mandatory channel limit", state: StateAddMandatoryChannel, step: int(MandatoryChannelStepLimitOrLink), expected: true},
		{name: "single step wizard", state: StateDeleteContent, step: 0, expected: true},
		{name: "single step wizard second step", state: StateDeleteContent, step: 1, expected: false},
		{name: "negative step", state: StateBlockUser, step: -1, expected: false},
		{name: "unknown state", state: State("buying"), step: 0, expected: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsStepAllowed(tc.state, tc.step); actual != tc.expected {
				t.Errorf("IsStepAllowed(%s, %d) = %t, expected %t", tc.state, tc.step, actual, tc.expected)
			}
		})
	}
}

func TestEveryStateHasStepCount(t *testing.T) {
	for _, st := range States() {
		if _, ok := stepCounts[st]; !ok {
			t.Errorf("state %s has no step count", st)
		}
	}
}
