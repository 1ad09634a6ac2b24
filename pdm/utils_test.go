package pdm

import (
	"math"
	"testing"
)

func TestIoU(t *testing.T) {
	tests := []struct {
		r1, r2        Rectangle
		correctAnswer float64
	}{
		{NewRect(0, 0, 10, 10), NewRect(0, 0, 10, 10), 1},
		{NewRect(0, 0, 10, 10), NewRect(5, 0, 10, 10), 50.0 / 150.0},
		{NewRect(0, 0, 10, 10), NewRect(20, 20, 5, 5), 0},
		{NewRect(0, 0, 10, 10), NewRect(10, 0, 10, 10), 0},
		{NewRect(0, 0, 10, 10), NewRect(2, 2, 4, 4), 16.0 / 100.0},
	}
	for _, test := range tests {
		answer := IoU(test.r1, test.r2)
		if math.Abs(answer-test.correctAnswer) > eps {
			t.Errorf("Wrong answer for %v and %v: %v, correct answer: %v", test.r1, test.r2, answer, test.correctAnswer)
		}
	}
}
