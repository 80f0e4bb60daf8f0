package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/keagan/gifmaker/pkg/util"
)

// ProbeVideo extracts metadata from a video file
func (e *Executor) ProbeVideo(ctx context.Context, filePath string) (*VideoInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	e.logger.Debug().Str("cmd", "ffprobe").Strs("args", args).Msg("probing video")

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := parseProbeOutput(output)
	if err != nil {
		return nil, err
	}
	info.FilePath = filePath

	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("no video stream in %s", filePath)
	}
	if info.FPS <= 0 {
		return nil, fmt.Errorf("%s: %w", filePath, ErrNoFrameRate)
	}

	return info, nil
}

func parseProbeOutput(output []byte) (*VideoInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &VideoInfo{}

	// Parse duration
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(dur * float64(time.Second))
	}

	// Parse bitrate
	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.Bitrate = br
	}

	// Extract video stream info, first video stream wins
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if info.Width != 0 {
				continue
			}
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName

			// ffmpeg applies the display rotation when decoding, so report
			// the size of the frames it will actually emit
			info.Rotation = streamRotation(stream.Tags.Rotate, stream.SideDataList)
			if info.Rotation == 90 || info.Rotation == 270 {
				info.Width, info.Height = info.Height, info.Width
			}

			// Calculate FPS from r_frame_rate (e.g., "30/1"), falling back to avg_frame_rate
			info.FPS = util.ParseFrameRate(stream.RFrameRate)
			if info.FPS <= 0 {
				info.FPS = util.ParseFrameRate(stream.AvgFrameRate)
			}
		case "audio":
			info.HasAudio = true
		}
	}

	return info, nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Tags         struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideDataList []probeSideData `json:"side_data_list"`
	} `json:"streams"`
}

type probeSideData struct {
	SideDataType string  `json:"side_data_type"`
	Rotation     float64 `json:"rotation"`
}

// streamRotation returns the clockwise display rotation in degrees, one of
// 0, 90, 180 or 270. The display matrix side data wins over the legacy tag.
func streamRotation(tag string, sideData []probeSideData) int {
	deg := 0.0
	if v, err := strconv.ParseFloat(strings.TrimSpace(tag), 64); err == nil {
		deg = v
	}
	for _, sd := range sideData {
		if sd.SideDataType == "Display Matrix" || sd.Rotation != 0 {
			deg = sd.Rotation
			break
		}
	}

	r := int(math.Round(deg/90)) * 90 % 360
	if r < 0 {
		r += 360
	}
	return r
}
