// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file, `video.go`, defines the VideoService, which turns a public
// reel URL into a set of evenly spaced JPEG frames. It shells out to two
// external tools: yt-dlp for the download (it handles the per-platform
// URL resolution and format negotiation) and ffmpeg for the frame
// sampling. All intermediate files live in a per-call temp directory
// that the caller releases through the returned cleanup function.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-reel-search/internal/cloud"
	"github.com/jaycherian/gcp-go-reel-search/internal/core/model"
)

const (
	// ytDlpArgs downloads the best available mp4 rendition into the
	// given output template. --no-playlist keeps a reel URL that happens
	// to resolve to a collection from fanning out.
	ytDlpArgs = "--no-playlist --quiet -f best[ext=mp4]/best -o %s %s"

	// frameSampleArgs spreads n frame grabs evenly across the clip.
	// -vf fps supplies the sampling rate computed from the measured
	// duration; -q:v 2 keeps JPEG quality high enough for recognition.
	frameSampleArgs = "-hide_banner -y -i %s -vf fps=%s -q:v 2 -vsync vfr %s"

	// ffprobe is expected alongside ffmpeg and reports clip duration.
	ffprobeArgs = "-v error -show_entries format=duration -of default=noprint_wrappers=1:nokey=1 %s"

	videoTempDirPrefix = "reel-video-"
	frameFilePattern   = "frame-%04d.jpg"
)

// ErrVideoDownload indicates the reel could not be fetched at all, as
// opposed to a fetched clip that yielded no frames.
var ErrVideoDownload = errors.New("video download failed")

// ErrNoFrames indicates a fetched clip yielded zero usable frames.
var ErrNoFrames = errors.New("no frame extracted from video")

// VideoService acquires a reel and samples frames from it.
type VideoService struct {
	YtDlpPath  string // Path to the yt-dlp executable.
	FFMpegPath string // Path to the ffmpeg executable (ffprobe is resolved next to it).
	Timeout    time.Duration
}

// NewVideoService builds a VideoService from the video section of the
// application config.
func NewVideoService(config *cloud.Config) *VideoService {
	return &VideoService{
		YtDlpPath:  config.Video.YtDlpPath,
		FFMpegPath: config.Video.FFMpegPath,
		Timeout:    time.Duration(config.Video.TimeoutInSeconds) * time.Second,
	}
}

// Download fetches the reel at url into a fresh temp directory and
// returns the local file path together with a cleanup function. The
// cleanup function is safe to call regardless of later failures.
//
// Inputs:
//   - ctx: Controls cancellation of the external download process.
//   - url: The public reel URL (Instagram, TikTok, YouTube, or a direct file).
//
// Outputs:
//   - string: The path of the downloaded video file.
//   - func(): Removes the temp directory and everything in it.
//   - error: ErrVideoDownload-wrapped failure when the fetch fails.
func (s *VideoService) Download(ctx context.Context, url string) (string, func(), error) {
	dir, err := os.MkdirTemp("", videoTempDirPrefix)
	if err != nil {
		return "", func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	out := filepath.Join(dir, "reel.mp4")
	args := fmt.Sprintf(ytDlpArgs, out, url)
	cmd := exec.CommandContext(ctx, s.YtDlpPath, strings.Split(args, " ")...)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("%w: %v", ErrVideoDownload, err)
	}

	// yt-dlp may append its own extension when the template one does
	// not match the negotiated container; take whatever landed in the
	// directory.
	path, err := s.findDownloaded(dir, out)
	if err != nil {
		cleanup()
		return "", func() {}, err
	}
	return path, cleanup, nil
}

// findDownloaded returns the expected output path when it exists,
// otherwise the first video file yt-dlp left in dir.
func (s *VideoService) findDownloaded(dir string, expected string) (string, error) {
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		candidate := filepath.Join(dir, e.Name())
		if isVideoFile(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no video file produced", ErrVideoDownload)
}

// isVideoFile sniffs the first bytes of the file rather than trusting
// its extension.
func isVideoFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()
	head := make([]byte, 261)
	n, _ := f.Read(head)
	kind, err := filetype.Match(head[:n])
	if err != nil {
		return false
	}
	return strings.HasPrefix(kind.MIME.Value, "video/")
}

// ExtractFrames samples frameCount frames evenly across the clip at
// videoPath and returns them in temporal order. A clip shorter than the
// probe resolution still yields at least one frame. An empty result is
// returned as a zero-length slice, not an error; the caller decides how
// to surface it.
//
// Inputs:
//   - ctx: Controls cancellation of the external ffmpeg process.
//   - videoPath: The local path of the downloaded clip.
//   - frameCount: The number of frames requested (bounded by config upstream).
//
// Outputs:
//   - []*model.Frame: The extracted frames with their temporal indexes.
//   - error: Failure to run ffmpeg or read its output files.
func (s *VideoService) ExtractFrames(ctx context.Context, videoPath string, frameCount int) ([]*model.Frame, error) {
	if frameCount < 1 {
		frameCount = 1
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	duration := s.probeDuration(ctx, videoPath)
	fps := "1"
	if duration > 0 {
		// n frames over d seconds: one grab every d/n seconds.
		fps = fmt.Sprintf("%0.6f", float64(frameCount)/duration)
	}

	outDir := filepath.Dir(videoPath)
	outPattern := filepath.Join(outDir, frameFilePattern)
	args := fmt.Sprintf(frameSampleArgs, videoPath, fps, outPattern)
	cmd := exec.CommandContext(ctx, s.FFMpegPath, strings.Split(args, " ")...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("frame extraction failed: %w", err)
	}

	return s.collectFrames(outDir, frameCount)
}

// probeDuration asks ffprobe for the clip length in seconds; a failure
// is tolerated and reported as 0 so that the caller falls back to a
// 1 fps sample.
func (s *VideoService) probeDuration(ctx context.Context, videoPath string) float64 {
	probe := filepath.Join(filepath.Dir(s.FFMpegPath), "ffprobe")
	if filepath.Dir(s.FFMpegPath) == "." {
		probe = "ffprobe"
	}
	args := fmt.Sprintf(ffprobeArgs, videoPath)
	out, err := exec.CommandContext(ctx, probe, strings.Split(args, " ")...).Output()
	if err != nil {
		return 0
	}
	var d float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &d); err != nil {
		return 0
	}
	return d
}

// collectFrames reads the JPEG files ffmpeg produced, in name order,
// capped at frameCount.
func (s *VideoService) collectFrames(dir string, frameCount int) ([]*model.Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "frame-") && strings.HasSuffix(e.Name(), ".jpg") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) > frameCount {
		names = names[:frameCount]
	}

	frames := make([]*model.Frame, 0, len(names))
	for i, name := range names {
		payload, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		frames = append(frames, &model.Frame{Payload: payload, Index: i})
	}
	return frames, nil
}
