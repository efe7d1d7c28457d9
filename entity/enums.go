package entity

import (
	"fmt"
	"slices"
)

var CameraTypes = []string{
	"RGB", "NIR", "Depth", "IR", "Eye_Tracking",
	"Passthrough", "CV_Module", "Multispectral", "Stereo",
}

var SceneTypes = []string{
	"indoor_lab", "outdoor", "darkroom", "studio", "dynamic_range_chart",
	"motion_tracking_scene", "calibration_rig", "low_light", "bright_backlight", "natural_daylight",
}

var LightingConditions = []string{
	"D65", "tungsten", "sunlight", "fluorescent", "LED",
	"mixed_lighting", "candlelight", "monochromatic_IR", "low_lux", "HDR_lightbox",
}

// ValidateEnum 检查 values 中每个值都属于 allowed
func ValidateEnum(field string, allowed []string, values ...string) error {
	for _, v := range values {
		if !slices.Contains(allowed, v) {
			return fmt.Errorf("invalid %s: %q", field, v)
		}
	}
	return nil
}
