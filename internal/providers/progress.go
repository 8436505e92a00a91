package providers

import (
	"context"
	"io"
)

// percentTracker converts byte counts into whole percentages and reports
// each new value once. It stops at 99; the caller marks completion.
type percentTracker struct {
	total      int64
	done       int64
	last       int
	onProgress func(int)
}

func newPercentTracker(total int64, onProgress func(int)) *percentTracker {
	return &percentTracker{total: total, last: -1, onProgress: onProgress}
}

func (t *percentTracker) add(n int64) {
	t.done += n
	t.report()
}

func (t *percentTracker) reset(to int64) {
	t.done = to
}

func (t *percentTracker) report() {
	if t.onProgress == nil || t.total <= 0 {
		return
	}
	pct := int(t.done * 100 / t.total)
	pct = min(pct, 99)
	if pct > t.last {
		t.last = pct
		t.onProgress(pct)
	}
}

// progressReadSeeker counts bytes read from the payload and aborts the
// transfer once ctx is done
type progressReadSeeker struct {
	ctx     context.Context
	reader  io.ReadSeeker
	tracker *percentTracker
}

func newProgressReadSeeker(ctx context.Context, r io.ReadSeeker, total int64, onProgress func(int)) *progressReadSeeker {
	return &progressReadSeeker{ctx: ctx, reader: r, tracker: newPercentTracker(total, onProgress)}
}

func (p *progressReadSeeker) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.reader.Read(b)
	if n > 0 {
		p.tracker.add(int64(n))
	}
	return n, err
}

func (p *progressReadSeeker) Seek(offset int64, whence int) (int64, error) {
	pos, err := p.reader.Seek(offset, whence)
	if err == nil {
		p.tracker.reset(pos)
	}
	return pos, err
}

// progressSink is handed to clients that report progress by reading
// as many bytes as they have sent
type progressSink struct {
	tracker *percentTracker
}

func (p *progressSink) Read(b []byte) (int, error) {
	p.tracker.add(int64(len(b)))
	return len(b), nil
}
