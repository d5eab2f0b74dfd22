/*
	Basic Script that generates synthetic JSF survey lines to help create lots of files for testing.
*/

package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser/jsf"
)

const (
	concurrency = 6

	// Per-line behavior
	pingsPerSecond    = 4
	orientationEvery  = 250 * time.Millisecond
	samplesPerChannel = 2048
	subsystem         = 20

	progressEvery = 10
)

var surveyStart = time.Date(2015, 5, 28, 17, 26, 0, 0, time.UTC)

func main() {
	dir := flag.String("dir", "./fixtures", "Directory to write the survey lines to")
	lines := flag.Int("lines", 24, "Number of survey lines (files)")
	seconds := flag.Int("seconds", 60, "Duration of each survey line in seconds")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0755); err != nil {
		fmt.Println("mkdir error:", err)
		os.Exit(1)
	}

	start := time.Now()
	fmt.Printf("Writing %d survey lines of %ds to %s\n", *lines, *seconds, *dir)

	jobs := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for line := range jobs {
				if err := writeLine(*dir, line, *seconds, id); err != nil {
					fmt.Printf("[worker %d] line %d error: %v\n", id, line, err)
					return
				}
				if (line+1)%progressEvery == 0 {
					fmt.Printf("[worker %d] completed line %d\n", id, line)
				}
			}
		}(i)
	}

	for line := 0; line < *lines; line++ {
		jobs <- line
	}
	close(jobs)

	wg.Wait()
	fmt.Printf("Fixtures written in %v\n", time.Since(start))
}

// writeLine writes one file. Lines follow each other in time so keys never
// collide across files.
func writeLine(dir string, line, seconds, id int) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("line_%03d.jsf", line)))
	if err != nil {
		return err
	}
	defer f.Close()

	e := jsf.NewEncoder(f)

	lineStart := surveyStart.Add(time.Duration(line*seconds) * time.Second)
	pingEvery := time.Second / pingsPerSecond
	nextOrientation := lineStart

	for t := lineStart; t.Before(lineStart.Add(time.Duration(seconds) * time.Second)); t = t.Add(pingEvery) {
		for _, ch := range []model.Channel{model.Port, model.Starboard} {
			if err := e.WritePing(subsystem, &model.Ping[uint16]{
				Timestamp:        t,
				Frequency:        400000,
				SamplingInterval: 20e-6,
				Channel:          ch,
				Data:             makeTrace(rng),
			}); err != nil {
				return err
			}
		}

		for !nextOrientation.After(t) {
			if err := e.WriteOrientation(0, &model.Orientation{
				Timestamp: nextOrientation,
				Pitch:     model.Float(rng.Float64()*4 - 2),
				Roll:      model.Float(rng.Float64()*4 - 2),
				Heading:   model.Float(rng.Float64() * 360),
			}); err != nil {
				return err
			}
			nextOrientation = nextOrientation.Add(orientationEvery)
		}
	}

	if err := e.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// makeTrace returns a decaying backscatter trace with some noise.
func makeTrace(rng *rand.Rand) []uint16 {
	trace := make([]uint16, samplesPerChannel)
	for i := range trace {
		decay := 60000 * (1 - float64(i)/samplesPerChannel)
		trace[i] = uint16(decay * (0.5 + rng.Float64()/2))
	}
	return trace
}
