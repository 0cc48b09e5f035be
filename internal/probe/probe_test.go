package probe

import (
	"errors"
	"testing"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		want SourceInfo
	}{
		{
			name: "plain landscape",
			json: `{"streams":[{"index":0,"codec_type":"video","width":1920,"height":1080,
				"sample_aspect_ratio":"1:1","display_aspect_ratio":"16:9"}]}`,
			want: SourceInfo{Width: 1920, Height: 1080, DisplayAspectRatio: "16:9"},
		},
		{
			name: "rotate tag",
			json: `{"streams":[{"index":0,"codec_type":"video","width":1920,"height":1080,
				"display_aspect_ratio":"16:9","tags":{"rotate":"90"}}]}`,
			want: SourceInfo{Width: 1920, Height: 1080, DisplayAspectRatio: "16:9", Rotation: 90, HasRotation: true},
		},
		{
			name: "display matrix side data",
			json: `{"streams":[{"index":0,"codec_type":"video","width":1280,"height":720,
				"display_aspect_ratio":"16:9",
				"side_data_list":[{"side_data_type":"Display Matrix","rotation":-90}]}]}`,
			want: SourceInfo{Width: 1280, Height: 720, DisplayAspectRatio: "16:9", Rotation: 90, HasRotation: true},
		},
		{
			name: "negative rotate tag is normalised",
			json: `{"streams":[{"index":0,"codec_type":"video","width":640,"height":480,
				"tags":{"rotate":"-90"}}]}`,
			want: SourceInfo{Width: 640, Height: 480, Rotation: 270, HasRotation: true},
		},
		{
			name: "zero rotation is not rotation",
			json: `{"streams":[{"index":0,"codec_type":"video","width":640,"height":480,
				"tags":{"rotate":"0"}}]}`,
			want: SourceInfo{Width: 640, Height: 480},
		},
		{
			name: "anamorphic source fixes width",
			json: `{"streams":[{"index":0,"codec_type":"video","width":720,"height":576,
				"sample_aspect_ratio":"64:45","display_aspect_ratio":"16:9"}]}`,
			want: SourceInfo{Width: 1024, Height: 576, AspectRatioFixed: true, DisplayAspectRatio: "16:9"},
		},
		{
			name: "attached picture is skipped",
			json: `{"streams":[
				{"index":0,"codec_type":"video","width":300,"height":300,"disposition":{"attached_pic":1}},
				{"index":1,"codec_type":"video","width":640,"height":360,"display_aspect_ratio":"16:9"}]}`,
			want: SourceInfo{Width: 640, Height: 360, DisplayAspectRatio: "16:9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON([]byte(tt.json))
			if err != nil {
				t.Fatalf("ParseJSON() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseJSON() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseJSONErrors(t *testing.T) {
	if _, err := ParseJSON([]byte(`not json`)); err == nil {
		t.Error("ParseJSON() of invalid JSON expected error but got none")
	}

	_, err := ParseJSON([]byte(`{"streams":[{"index":0,"codec_type":"audio"}]}`))
	if !errors.Is(err, ErrNoVideoStream) {
		t.Errorf("ParseJSON() of audio-only source error = %v, want ErrNoVideoStream", err)
	}
}

func TestDimensions(t *testing.T) {
	w, h, ok := SourceInfo{Width: 640, Height: 480}.Dimensions()
	if !ok || w != 640 || h != 480 {
		t.Errorf("Dimensions() = %d, %d, %v; want 640, 480, true", w, h, ok)
	}

	if _, _, ok := (SourceInfo{}).Dimensions(); ok {
		t.Error("Dimensions() of empty SourceInfo should not be ok")
	}
}
