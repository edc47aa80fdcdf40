package display

import (
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/junsooki/AirXR/internal/remote"
)

const (
	SampleRate = 48000

	bytesPerFrame = 4 // 16-bit stereo
	maxQueued     = SampleRate * bytesPerFrame / 4
)

// pcmQueue is the reader an ebiten player pulls from. It never blocks: an
// empty queue reads as silence, and writes past maxQueued drop the oldest
// samples.
type pcmQueue struct {
	mu      sync.Mutex
	buf     []byte
	dropped int
}

func (q *pcmQueue) push(samples []int16) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, s := range samples {
		q.buf = binary.LittleEndian.AppendUint16(q.buf, uint16(s))
	}
	if over := len(q.buf) - maxQueued; over > 0 {
		over += (bytesPerFrame - over%bytesPerFrame) % bytesPerFrame
		q.buf = q.buf[over:]
		q.dropped += over
	}
}

func (q *pcmQueue) Read(p []byte) (int, error) {
	n := len(p) - len(p)%bytesPerFrame
	if n == 0 {
		return 0, io.ErrShortBuffer
	}
	q.mu.Lock()
	c := copy(p[:n], q.buf)
	q.buf = q.buf[c:]
	q.mu.Unlock()
	clear(p[c:n])
	return n, nil
}

func (q *pcmQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Speaker plays streamed PCM through the ebiten audio context.
type Speaker struct {
	mu     sync.Mutex
	ctx    *audio.Context
	player *audio.Player
	queue  *pcmQueue
}

func NewSpeaker() *Speaker {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(SampleRate)
	}
	return &Speaker{ctx: ctx}
}

// Open starts a fresh player.
func (s *Speaker) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		return nil
	}
	q := &pcmQueue{}
	p, err := s.ctx.NewPlayer(q)
	if err != nil {
		return err
	}
	p.SetBufferSize(50 * time.Millisecond)
	p.Play()
	s.player, s.queue = p, q
	return nil
}

// Write queues interleaved stereo samples. A closed speaker reports
// remote.ErrAudioDisconnected.
func (s *Speaker) Write(samples []int16) error {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		return remote.ErrAudioDisconnected
	}
	q.push(samples)
	return nil
}

func (s *Speaker) Close() error {
	s.mu.Lock()
	p := s.player
	s.player, s.queue = nil, nil
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Close()
}
