package tsfile

import (
	"sort"

	"github.com/soltixdb/soltix/internal/logging"
)

var unseqMergeLog = logging.Global().With("component", "tsfile.unseqmerge")

// pendingUnseqChunk is one disk chunk not yet opened into the merge
// heap, parked until its start time is reached so at most a small,
// bounded number of file handles are open at once across all
// unsequential sources.
type pendingUnseqChunk struct {
	meta     *ChunkMetaData
	priority int64
}

// UnseqResourceMergeReader collects every chunk covering a series from
// all unsequential files plus unflushed memory, and feeds them into a
// PriorityMergeReader (C7) lazily: a chunk is opened only once the
// merge's current output timestamp reaches its start time. Mem-chunks
// are attached eagerly since they cost nothing to hold open.
type UnseqResourceMergeReader struct {
	dataType DataType
	filter   Filter
	merge    *PriorityMergeReader
	pending  []*pendingUnseqChunk
}

// BuildUnseqResourceMergeReader runs the 7-step construction of spec
// §4.8 over resources (already restricted to the unsequential files for
// one series) and returns a ready-to-drive reader. resources should be
// supplied oldest-first (closed files before unclosed, ascending
// version within each) so priority assignment favors newer data without
// the caller having to compute priorities itself.
func BuildUnseqResourceMergeReader(
	dataType DataType,
	path string,
	resources []TsFileResource,
	resourceFilter ResourceFilter,
	modStore ModificationStore,
	filter Filter,
) (*UnseqResourceMergeReader, error) {
	r := &UnseqResourceMergeReader{
		dataType: dataType,
		filter:   filter,
		merge:    NewPriorityMergeReader(dataType),
	}

	var priority int64

	for _, resource := range resources {
		// Step 1: skip closed resources the filter provably cannot
		// satisfy, without ever materializing their chunk metadata.
		if resource.Closed() {
			endTimes := resource.EndTimeMap()
			if len(endTimes) > 0 && resourceFilter != nil && !resourceFilter.Satisfies(resource, filter, path) {
				continue
			}
		}

		// Step 2: obtain chunk metadata (the resource itself decides
		// whether that means a file-scoped cache lookup or reading its
		// in-memory list).
		chunkMetas, err := resource.ChunkMetas(path)
		if err != nil {
			unseqMergeLog.Warn("chunk meta lookup failed", "path", path, "error", err)
			return nil, err
		}

		// Step 3: apply pending modifications to a fresh copy of each
		// meta (never mutate the shared, cached originals).
		var mods []Modification
		if modStore != nil {
			mods, err = modStore.Modifications(resource, path)
			if err != nil {
				return nil, err
			}
		}
		adjusted := applyModifications(chunkMetas, mods)

		// Step 4: prune by statistics into a freshly built slice,
		// rather than removing from the list being walked (spec §9's
		// mutate-during-iteration hazard).
		surviving := make([]*ChunkMetaData, 0, len(adjusted))
		for _, m := range adjusted {
			if m.Satisfies(filter) {
				surviving = append(surviving, m)
			}
		}

		// Step 5: assign strictly increasing priority per surviving
		// meta, oldest resource first.
		for _, m := range surviving {
			priority++
			m.Priority = priority
			r.pending = append(r.pending, &pendingUnseqChunk{meta: m, priority: priority})
		}

		// Step 6: for an unclosed resource, attach its mem-chunk with
		// priority above every disk chunk just assigned for it.
		if !resource.Closed() {
			if mc := resource.MemChunk(path); mc != nil {
				priority++
				if err := r.merge.AddReader(mc.PointReader(filter), priority); err != nil {
					return nil, err
				}
			}
		}
	}

	// Step 7: sort surviving metas by start time ascending so the
	// lazy-open loop can greedily take the earliest pending chunk.
	sort.Slice(r.pending, func(i, j int) bool {
		return r.pending[i].meta.StartTime < r.pending[j].meta.StartTime
	})

	return r, nil
}

// applyModifications returns copies of metas with DeletedAt widened by
// any modification whose version is at or after the chunk's own
// version (the deletion happened no earlier than the chunk was
// written) and whose bound exceeds the chunk's current watermark.
// Originals are left untouched.
func applyModifications(metas []*ChunkMetaData, mods []Modification) []*ChunkMetaData {
	if len(mods) == 0 {
		out := make([]*ChunkMetaData, len(metas))
		copy(out, metas)
		return out
	}
	out := make([]*ChunkMetaData, len(metas))
	for i, m := range metas {
		copied := *m
		for _, mod := range mods {
			if mod.Version >= copied.Version && mod.TimestampUpperBound > copied.DeletedAt {
				copied.DeletedAt = mod.TimestampUpperBound
			}
		}
		out[i] = &copied
	}
	return out
}

// openDue opens every pending chunk whose start time has already been
// reached by the merge's current output position, or the single
// earliest pending chunk if the heap is empty and something must be
// opened to make progress at all.
func (r *UnseqResourceMergeReader) openDue() error {
	for len(r.pending) > 0 {
		due := !r.merge.HasNext() || r.merge.PeekTimestamp() >= r.pending[0].meta.StartTime
		if !due {
			break
		}
		pc := r.pending[0]
		r.pending = r.pending[1:]

		chunk, err := pc.meta.Loader.Load(pc.meta)
		if err != nil {
			return err
		}
		cr, err := NewChunkReader(chunk, r.filter)
		if err != nil {
			return err
		}
		if err := r.merge.AddReader(NewPointReader(cr), pc.priority); err != nil {
			return err
		}
	}
	return nil
}

// HasNextBatch reports whether another point remains anywhere in the
// unsequential set.
func (r *UnseqResourceMergeReader) HasNextBatch() (bool, error) {
	if err := r.openDue(); err != nil {
		return false, err
	}
	return r.merge.HasNext(), nil
}

// NextBatch drains up to BatchSize merged points, opening further
// pending chunks as the output timestamp advances past their start
// time.
func (r *UnseqResourceMergeReader) NextBatch() (*BatchData, error) {
	batch := NewBatchData(r.dataType)
	for batch.Length() < BatchSize {
		has, err := r.HasNextBatch()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		tv, err := r.merge.Next()
		if err != nil {
			return nil, err
		}
		batch.PutAnyValue(tv.Timestamp, tv.Value)
	}
	return batch, nil
}

func (r *UnseqResourceMergeReader) Close() error {
	r.pending = nil
	return r.merge.Close()
}
