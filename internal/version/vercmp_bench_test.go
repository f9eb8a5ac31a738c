package version

import "testing"

func BenchmarkCompare(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compare("2:1.18.3-2", "2:1.18.10-1")
	}
}

func BenchmarkCompare_Equal(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compare("1.0.0-1", "1.0.0-1")
	}
}

func BenchmarkIsMajorVersionBump(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		IsMajorVersionBump("1.18.3-2", "2.0.0-1")
	}
}
