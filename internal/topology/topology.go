// Package topology defines the spatial reference objects a time series is
// validated against: a region connectivity or a sensor array.
package topology

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates topology variants.
type Kind string

const (
	KindConnectivity Kind = "connectivity"
	KindSensors      Kind = "sensors"
)

// Topology is the read-only view the importer needs of a reference object.
type Topology interface {
	GID() string
	Kind() Kind
	// ChannelCount is the number of regions or sensors.
	ChannelCount() int
	// Noun and Unit name the object and its channels in messages,
	// e.g. "connectivity" with "nodes".
	Noun() string
	Unit() string
}

// Connectivity is a region graph. Only the node count matters to imports.
type Connectivity struct {
	ID              string    `json:"gid"`
	Title           string    `json:"title"`
	NumberOfRegions int       `json:"number_of_regions"`
	CreatedAt       time.Time `json:"created_at"`
}

func (c *Connectivity) GID() string       { return c.ID }
func (c *Connectivity) Kind() Kind        { return KindConnectivity }
func (c *Connectivity) ChannelCount() int { return c.NumberOfRegions }
func (c *Connectivity) Noun() string      { return "connectivity" }
func (c *Connectivity) Unit() string      { return "nodes" }

// SensorArray is a set of physical sensors, e.g. EEG electrodes.
type SensorArray struct {
	ID              string    `json:"gid"`
	Title           string    `json:"title"`
	SensorsType     string    `json:"sensors_type"`
	NumberOfSensors int       `json:"number_of_sensors"`
	CreatedAt       time.Time `json:"created_at"`
}

func (s *SensorArray) GID() string       { return s.ID }
func (s *SensorArray) Kind() Kind        { return KindSensors }
func (s *SensorArray) ChannelCount() int { return s.NumberOfSensors }
func (s *SensorArray) Noun() string      { return "sensor array" }
func (s *SensorArray) Unit() string      { return "sensors" }

// NewConnectivity returns a connectivity with a fresh GID.
func NewConnectivity(title string, regions int) (*Connectivity, error) {
	if regions <= 0 {
		return nil, fmt.Errorf("number of regions must be positive, got %d", regions)
	}
	return &Connectivity{
		ID:              uuid.NewString(),
		Title:           title,
		NumberOfRegions: regions,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// NewSensorArray returns a sensor array with a fresh GID.
func NewSensorArray(title, sensorsType string, sensors int) (*SensorArray, error) {
	if sensors <= 0 {
		return nil, fmt.Errorf("number of sensors must be positive, got %d", sensors)
	}
	if sensorsType == "" {
		sensorsType = "EEG"
	}
	return &SensorArray{
		ID:              uuid.NewString(),
		Title:           title,
		SensorsType:     sensorsType,
		NumberOfSensors: sensors,
		CreatedAt:       time.Now().UTC(),
	}, nil
}
