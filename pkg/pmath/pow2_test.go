package pmath

import "testing"

func TestCeilToPowerOf2(t *testing.T) {
	cases := [][2]int{
		{0, 2}, {1, 2}, {2, 2}, {3, 4}, {4, 4}, {5, 8},
		{1023, 1024}, {1024, 1024}, {1025, 2048},
	}
	for _, c := range cases {
		if got := CeilToPowerOf2(c[0]); got != c[1] {
			t.Fatalf("CeilToPowerOf2(%d) = %d, expected %d", c[0], got, c[1])
		}
	}
}

func TestFloorToPowerOf2(t *testing.T) {
	cases := [][2]int{
		{0, 1}, {1, 1}, {2, 2}, {3, 2}, {4, 4}, {7, 4}, {1025, 1024},
	}
	for _, c := range cases {
		if got := FloorToPowerOf2(c[0]); got != c[1] {
			t.Fatalf("FloorToPowerOf2(%d) = %d, expected %d", c[0], got, c[1])
		}
	}
}

func TestPowerOf2Index(t *testing.T) {
	if PowerOf2Index(1024) != 10 {
		t.Fatal("index of 1024")
	}
	if !IsPowerOf2(4096) || IsPowerOf2(4097) {
		t.Fatal("IsPowerOf2")
	}
}
