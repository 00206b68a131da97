// Command tsfile_dump walks a tsfile chunk by chunk and prints each
// chunk's header followed by either its point count or, with -pages,
// each page's header fields and statistics, without going
// through a catalogue or resource index. Useful for inspecting a file
// produced by the write path (out of scope here) when something about
// the read path's pruning looks wrong.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/soltixdb/soltix/internal/tsfile"
)

func main() {
	path := flag.String("file", "", "Path to a tsfile to dump")
	showPages := flag.Bool("pages", false, "Print per-page statistics within each chunk")
	flag.Parse()

	if *path == "" {
		log.Fatal("Error: -file parameter is required")
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("Error reading file: %v\n", err)
	}

	offset := 0
	chunkIndex := 0
	for offset < len(data) {
		header, n, err := tsfile.ParseChunkHeader(data[offset:])
		if err != nil {
			log.Fatalf("Error parsing chunk header at offset %d: %v\n", offset, err)
		}
		bodyStart := offset + n
		bodyEnd := bodyStart + int(header.BodySize)
		if bodyEnd > len(data) {
			log.Fatalf("Chunk at offset %d claims body size %d, but only %d bytes remain\n", offset, header.BodySize, len(data)-bodyStart)
		}
		body := data[bodyStart:bodyEnd]

		fmt.Printf("chunk %d: uid=%s type=%s encoding=%d compression=%d pages=%d offset=%d bodysize=%d\n",
			chunkIndex, header.MeasurementUID, header.DataType, header.Encoding, header.Compression, header.NumPages, offset, header.BodySize)

		if *showPages {
			if err := dumpPages(header, body); err != nil {
				log.Fatalf("Error dumping pages for chunk %d: %v\n", chunkIndex, err)
			}
		} else if err := dumpPointCount(header, body); err != nil {
			log.Fatalf("Error reading chunk %d: %v\n", chunkIndex, err)
		}

		offset = bodyEnd
		chunkIndex++
	}

	fmt.Printf("%d chunks, %d bytes total\n", chunkIndex, len(data))
}

// dumpPointCount drives a ChunkReader over the whole chunk and reports
// how many points it yields, exercising the same decode path a query
// would without applying any filter.
func dumpPointCount(header tsfile.ChunkHeader, body []byte) error {
	chunk := &tsfile.Chunk{Header: header, Body: body}
	reader, err := tsfile.NewChunkReader(chunk, nil)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	var total int
	for {
		has, err := reader.HasNextBatch()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		batch, err := reader.NextBatch()
		if err != nil {
			return err
		}
		total += batch.Length()
	}
	fmt.Printf("  %d points\n", total)
	return nil
}

// dumpPages walks the page stream directly, printing each page's header
// fields and statistics without decompressing its body, so pruning
// decisions can be inspected even on a corrupt or unsupported codec.
func dumpPages(header tsfile.ChunkHeader, body []byte) error {
	cursor := 0
	pageIndex := 0
	for cursor < len(body) {
		ph, n, err := tsfile.ParsePageHeader(body[cursor:], header.DataType)
		if err != nil {
			return err
		}
		fmt.Printf("  page %d: points=%d time=[%d,%d] compressed=%d uncompressed=%d",
			pageIndex, ph.PointCount, ph.MinTimestamp, ph.MaxTimestamp, ph.CompressedSize, ph.UncompressedSize)
		if ph.Statistics != nil && !ph.Statistics.IsEmpty() {
			fmt.Printf(" min=%s max=%s sum=%.4f", formatValue(ph.Statistics.Min()), formatValue(ph.Statistics.Max()), ph.Statistics.Sum())
		}
		fmt.Println()

		cursor += n + int(ph.CompressedSize)
		pageIndex++
	}
	return nil
}

func formatValue(v tsfile.Value) string {
	switch v.Type() {
	case tsfile.Bool:
		return fmt.Sprintf("%v", v.AsBool())
	case tsfile.Int32:
		return fmt.Sprintf("%d", v.AsInt32())
	case tsfile.Int64:
		return fmt.Sprintf("%d", v.AsInt64())
	case tsfile.Float:
		return fmt.Sprintf("%g", v.AsFloat32())
	case tsfile.Double:
		return fmt.Sprintf("%g", v.AsFloat64())
	case tsfile.Text:
		return v.AsText()
	default:
		return "?"
	}
}
