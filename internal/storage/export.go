package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/rigidsim/internal/sim"
)

type ExportBody struct {
	Name       string       `json:"name"`
	Positions  [][3]float64 `json:"positions"`
	Quaternion [][4]float64 `json:"quaternions"`
	Velocities [][3]float64 `json:"velocities"`
	Sleep      []string     `json:"sleep"`
}

type ExportData struct {
	Scene    string             `json:"scene"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Times    []float64          `json:"times"`
	Contacts []int              `json:"contacts"`
	Bodies   []ExportBody       `json:"bodies"`
	Metrics  map[string]float64 `json:"metrics"`
	Events   map[string]int     `json:"events,omitempty"`
	Impacts  []sim.Impact       `json:"impacts,omitempty"`
}

// NewExportData regroups frames per body.
func NewExportData(scene string, dt, duration float64, result *sim.Result) *ExportData {
	data := &ExportData{
		Scene:    scene,
		Dt:       dt,
		Duration: duration,
		Steps:    result.StepsTaken,
		Times:    make([]float64, len(result.Frames)),
		Contacts: make([]int, len(result.Frames)),
		Bodies:   make([]ExportBody, len(result.BodyNames)),
		Metrics:  result.Metrics,
		Events:   result.Events,
		Impacts:  result.Impacts,
	}
	for i, name := range bodyNames(result) {
		data.Bodies[i].Name = name
	}
	for i, f := range result.Frames {
		data.Times[i] = f.Time
		data.Contacts[i] = f.Contacts
		for j, b := range f.Bodies {
			if j >= len(data.Bodies) {
				break
			}
			eb := &data.Bodies[j]
			q := b.Quaternion
			eb.Positions = append(eb.Positions, b.Position)
			eb.Quaternion = append(eb.Quaternion, [4]float64{q.V[0], q.V[1], q.V[2], q.W})
			eb.Velocities = append(eb.Velocities, b.Velocity)
			eb.Sleep = append(eb.Sleep, b.Sleep.String())
		}
	}
	return data
}

func ExportJSON(path string, scene string, dt, duration float64, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return EncodeJSON(file, scene, dt, duration, result)
}

func EncodeJSON(w io.Writer, scene string, dt, duration float64, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(scene, dt, duration, result))
}
