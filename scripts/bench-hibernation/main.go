// bench-hibernation measures heap memory before and after Hibernate() calls
// while a large tree is built in chunks.
//
// Usage:
//
//	go run ./scripts/bench-hibernation --keys 5000000 --chunk-size 1000000 \
//	  --order shuffled --profile-dir docs/profiles/hibernation
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/redblack/pkg/observability"
	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
	"github.com/Sumatoshi-tech/redblack/pkg/safeconv"
	"github.com/Sumatoshi-tech/redblack/pkg/workload"
)

type heapSnapshot struct {
	label     string
	heapInUse uint64
	heapSys   uint64
	heapIdle  uint64
}

type chunkBounds struct {
	start int
	end   int
}

func main() {
	keyCount := flag.Int("keys", 5_000_000, "Number of keys to insert")
	chunkSize := flag.Int("chunk-size", 1_000_000, "Keys inserted between hibernations")
	orderName := flag.String("order", "shuffled", "Key order (ascending, descending, shuffled)")
	seed := flag.Int64("seed", 1, "Seed for shuffled keys")
	profileDir := flag.String("profile-dir", "", "Directory to write heap profiles (optional)")

	flag.Parse()

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceName = "redblack-bench"
	obsCfg.Mode = observability.ModeBench

	providers, err := observability.Init(obsCfg)
	if err != nil {
		log.Fatalf("init observability: %v", err)
	}

	defer func() { _ = providers.Shutdown(context.Background()) }()

	logger := providers.Logger

	order, err := workload.ParseOrder(*orderName)
	if err != nil {
		log.Fatal(err)
	}

	if *profileDir != "" {
		if mkErr := os.MkdirAll(*profileDir, 0o755); mkErr != nil {
			log.Fatalf("mkdir profile-dir: %v", mkErr)
		}
	}

	keys := workload.Generate(order, *keyCount, *seed)
	chunks := planChunks(len(keys), *chunkSize)
	logger.Info("inserting keys", "keys", len(keys), "chunks", len(chunks), "order", order.String())

	var snapshots []heapSnapshot

	takeSnapshot := func(label string) {
		runtime.GC()
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		snapshots = append(snapshots, heapSnapshot{
			label:     label,
			heapInUse: m.HeapInuse,
			heapSys:   m.HeapSys,
			heapIdle:  m.HeapIdle,
		})
		logger.Info("heap", "phase", label,
			"inuse", humanize.Bytes(m.HeapInuse), "sys", humanize.Bytes(m.HeapSys), "idle", humanize.Bytes(m.HeapIdle))
	}

	writeHeapProfile := func(name string) {
		if *profileDir == "" {
			return
		}

		runtime.GC()

		path := filepath.Join(*profileDir, name)

		f, ferr := os.Create(path)
		if ferr != nil {
			logger.Warn("create heap profile", "path", path, "error", ferr)

			return
		}
		defer f.Close()

		if perr := pprof.WriteHeapProfile(f); perr != nil {
			logger.Warn("write heap profile", "path", path, "error", perr)
		}
	}

	tree := rbtree.New[int64]()
	allocator := tree.Allocator()

	takeSnapshot("before_inserts")

	for i, chunk := range chunks {
		if i > 0 {
			takeSnapshot(fmt.Sprintf("chunk_%d_before_hibernate", i))
			writeHeapProfile(fmt.Sprintf("heap_chunk_%d_before_hibernate.prof", i))

			if herr := allocator.Hibernate(); herr != nil {
				log.Fatalf("hibernate: %v", herr)
			}

			logger.Info("hibernated", "chunk", i, "arena_nodes", allocator.Size(),
				"compressed", humanize.Bytes(safeconv.MustIntToUint64(allocator.HibernatedBytes())))
			takeSnapshot(fmt.Sprintf("chunk_%d_after_hibernate", i))
			writeHeapProfile(fmt.Sprintf("heap_chunk_%d_after_hibernate.prof", i))

			if berr := allocator.Boot(); berr != nil {
				log.Fatalf("boot: %v", berr)
			}

			takeSnapshot(fmt.Sprintf("chunk_%d_after_boot", i))
		}

		for _, key := range keys[chunk.start:chunk.end] {
			tree.Insert(key)
		}
	}

	takeSnapshot("after_all_chunks")
	writeHeapProfile("heap_after_all_chunks.prof")

	if verr := tree.Validate(); verr != nil {
		log.Fatalf("validate: %v", verr)
	}

	printTimeline(snapshots)
	printDeltas(snapshots)
}

func printTimeline(snapshots []heapSnapshot) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle("Heap Memory Timeline")
	tbl.AppendHeader(table.Row{"Phase", "InUse", "Sys", "Idle"})

	for _, s := range snapshots {
		tbl.AppendRow(table.Row{
			s.label, humanize.Bytes(s.heapInUse), humanize.Bytes(s.heapSys), humanize.Bytes(s.heapIdle),
		})
	}

	tbl.Render()
}

func printDeltas(snapshots []heapSnapshot) {
	fmt.Println()
	fmt.Println("=== Hibernation Memory Deltas ===")

	for i := 0; i+1 < len(snapshots); i++ {
		curr := snapshots[i]

		next := snapshots[i+1]
		if strings.HasSuffix(curr.label, "before_hibernate") && strings.HasSuffix(next.label, "after_hibernate") {
			delta := float64(curr.heapInUse) - float64(next.heapInUse)
			pct := (delta / float64(curr.heapInUse)) * 100
			fmt.Printf("  %s -> %s: %.1f MB freed (%.1f%%)\n",
				curr.label, next.label, delta/1e6, pct)
		}
	}
}

func planChunks(total, chunkSize int) []chunkBounds {
	var chunks []chunkBounds

	if chunkSize <= 0 {
		chunkSize = total
	}

	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		chunks = append(chunks, chunkBounds{start: start, end: end})
	}

	return chunks
}
