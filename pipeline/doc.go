// Package pipeline provides lazy, pull-based stream operators used to fan
// work out over a bounded worker pool and gather it back in input order.
//
// Nothing runs until a terminal (ForEach, Gather) pulls values;
// each stage pulls from the previous one on demand.
//
//	p := pipeline.ParallelIndexed(pipeline.Enumerate(segments), workers,
//	    func(ctx context.Context, i int, s vad.Segment) (embedding.Vector, error) {
//	        return embedOne(ctx, i, s)
//	    })
//	vectors, err := pipeline.Gather(ctx, p, len(segments))
package pipeline
