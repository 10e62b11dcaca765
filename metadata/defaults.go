package metadata

import (
	"fmt"
	"os"

	"github.com/carbocation/pfx"
	"gopkg.in/yaml.v3"
)

// SiteDefaults holds the values a site keeps constant across studies, read
// from a YAML file once and overlaid onto every assembly's fields. Explicit
// per-study values always win.
type SiteDefaults struct {
	OrganizationUID  string `yaml:"organization_uid"`
	Modality         string `yaml:"modality"`
	StudyDescription string `yaml:"study_description"`
	AcquisitionMode  string `yaml:"acquisition_mode"`

	CameraModel     string `yaml:"camera_model"`
	CameraSerial    string `yaml:"camera_serial"`
	SoftwareVersion string `yaml:"software_version"`
	CalibrationDate string `yaml:"calibration_date"`

	Emissivity          string `yaml:"emissivity"`
	DistanceMeters      string `yaml:"distance_meters"`
	AmbientC            string `yaml:"ambient_c"`
	ReflectedC          string `yaml:"reflected_c"`
	RelativeHumidityPct string `yaml:"relative_humidity_pct"`
	TemperatureUnit     string `yaml:"temperature_unit"`
}

// LoadSiteDefaults parses a YAML defaults file. An empty path simply means
// no site defaults.
func LoadSiteDefaults(path string) (SiteDefaults, error) {
	var sd SiteDefaults
	if path == "" {
		return sd, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return sd, pfx.Err(err)
	}
	if err := yaml.Unmarshal(data, &sd); err != nil {
		return sd, fmt.Errorf("parsing %s: %v", path, err)
	}

	return sd, nil
}

// Apply overlays the site defaults onto fields, filling only what the
// caller left blank.
func (sd SiteDefaults) Apply(f Fields) Fields {
	for _, v := range []struct {
		target *string
		def    string
	}{
		{&f.OrganizationUID, sd.OrganizationUID},
		{&f.Modality, sd.Modality},
		{&f.StudyDescription, sd.StudyDescription},
		{&f.AcquisitionMode, sd.AcquisitionMode},
		{&f.CameraModel, sd.CameraModel},
		{&f.CameraSerial, sd.CameraSerial},
		{&f.SoftwareVersion, sd.SoftwareVersion},
		{&f.CalibrationDate, sd.CalibrationDate},
		{&f.Thermal.Emissivity, sd.Emissivity},
		{&f.Thermal.DistanceMeters, sd.DistanceMeters},
		{&f.Thermal.AmbientC, sd.AmbientC},
		{&f.Thermal.ReflectedC, sd.ReflectedC},
		{&f.Thermal.RelativeHumidityPct, sd.RelativeHumidityPct},
		{&f.Thermal.Unit, sd.TemperatureUnit},
	} {
		if *v.target == "" {
			*v.target = v.def
		}
	}

	return f
}
