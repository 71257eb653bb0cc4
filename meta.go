package snakeshot

import "sync"

const ScreenshotExt = ".jpeg"

// Manifest maps each session to the screenshot files of its latest capture.
type Manifest map[SessionID][]string

// Files flattens the manifest into a set of file names.
func (m Manifest) Files() map[string]struct{} {
	files := make(map[string]struct{})
	for _, names := range m {
		for _, name := range names {
			files[name] = struct{}{}
		}
	}
	return files
}

type OutputSize struct {
	Slug   string
	Length int
}

var DefaultOutputSizes = []OutputSize{
	{Slug: "tiny", Length: 150},
	{Slug: "small", Length: 300},
	{Slug: "medium", Length: 500},
	{Slug: "big", Length: 700},
}

type CaptureOpts struct {
	Sizes       []OutputSize
	Quality     int
	StrictSized bool
}

type DispatchOpts struct {
	Concurrency int
}

type dispatchResult struct {
	sync.Mutex

	manifest Manifest
}

func (r *dispatchResult) add(id SessionID, files []string) {
	if len(files) == 0 {
		return
	}
	r.Lock()
	r.manifest[id] = files
	r.Unlock()
}
