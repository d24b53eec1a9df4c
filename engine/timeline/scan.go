package timeline

import (
	"fmt"

	"github.com/spaghettifunk/relight/engine/renderer/metadata"
)

// FindLight walks the timeline depth first looking for a light-source effect
// configured with id on an item visible at the current frame. The first
// match wins. The returned error reports a host that could not be read; a
// clean miss returns false and a nil error.
func FindLight(view View, id int) (metadata.LightDescriptor, bool, error) {
	if view == nil {
		return metadata.LightDescriptor{}, false, nil
	}

	frame, err := view.CurrentFrame()
	if err != nil {
		return metadata.LightDescriptor{}, false, fmt.Errorf("reading current frame: %w", err)
	}
	items, err := view.Items()
	if err != nil {
		return metadata.LightDescriptor{}, false, fmt.Errorf("reading timeline items: %w", err)
	}

	light, ok := scanItems(items, id, frame, 0)
	return light, ok, nil
}

func scanItems(items []Item, id int, frame, offset int64) (metadata.LightDescriptor, bool) {
	for _, item := range items {
		if item == nil {
			continue
		}
		absoluteStart := item.Start() + offset
		length := item.Length()
		if frame < absoluteStart || frame >= absoluteStart+length {
			continue
		}

		for _, effect := range item.Effects() {
			lm, ok := effect.(LightModel)
			if !ok || lm.ConfiguredLightID() != id {
				continue
			}
			return lm.SampleLight(frame-absoluteStart, length, FallbackFPS), true
		}

		if children := item.Children(); len(children) > 0 {
			if light, ok := scanItems(children, id, frame, absoluteStart); ok {
				return light, true
			}
		}
	}
	return metadata.LightDescriptor{}, false
}
