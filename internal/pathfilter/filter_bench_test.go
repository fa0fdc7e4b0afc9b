package pathfilter

import (
	"fmt"
	"testing"

	"github.com/dshills/compdb-filter/internal/compdb"
)

func buildDatabase(b *testing.B, n int) compdb.Database {
	b.Helper()
	db := make(compdb.Database, 0, n)
	for i := 0; i < n; i++ {
		dir := "src"
		if i%3 == 0 {
			dir = "third_party"
		}
		rec := compdb.NewRecord(fmt.Sprintf("/proj/%s/module%d/file%d.cc", dir, i%50, i))
		if err := rec.Set("command", fmt.Sprintf("c++ -O2 -c file%d.cc", i)); err != nil {
			b.Fatal(err)
		}
		db = append(db, rec)
	}
	return db
}

func BenchmarkApply(b *testing.B) {
	for _, size := range []int{100, 10000} {
		db := buildDatabase(b, size)
		b.Run(fmt.Sprintf("entries=%d", size), func(b *testing.B) {
			filter := New("/proj/src", "/proj")
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = filter.Apply(db)
			}
		})
	}
}

func BenchmarkDecodeFilterEncode(b *testing.B) {
	data, err := compdb.Marshal(buildDatabase(b, 5000))
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		db, err := compdb.Decode(data)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := compdb.Marshal(Apply(db, "/proj/src", "/proj")); err != nil {
			b.Fatal(err)
		}
	}
}
