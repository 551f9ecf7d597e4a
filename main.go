// qgrid drives a photonic emitter grid and image sensor: it learns the
// grid-to-pixel calibration, visualizes an externally-computed outcome
// bitstring on the hardware, and reads the displayed state back through
// the sensor.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/photonlab/qgrid/internal/calib"
	"github.com/photonlab/qgrid/internal/config"
	"github.com/photonlab/qgrid/internal/decode"
	"github.com/photonlab/qgrid/internal/device"
	"github.com/photonlab/qgrid/internal/exec"
	"github.com/photonlab/qgrid/internal/link"
	"github.com/photonlab/qgrid/internal/store"
	"github.com/photonlab/qgrid/internal/version"
)

var (
	simMode   = flag.Bool("sim", false, "Run against the simulated controller instead of real hardware")
	portPath  = flag.String("port", "/dev/ttyUSB0", "Controller serial port")
	dbPath    = flag.String("db", "qgrid.db", "Path to the calibration/result store")
	mappingID = flag.String("mapping", "default", "Calibration mapping identifier")
	gridRows  = flag.Int("rows", device.DefaultGridRows, "Emitter grid rows")
	gridCols  = flag.Int("cols", device.DefaultGridCols, "Emitter grid columns")

	doCalibrate = flag.Bool("calibrate", false, "Run a calibration sweep and store the mapping")
	adaptive    = flag.Bool("adaptive", true, "Use adaptive thresholding during calibration")

	opsPath    = flag.String("ops", "", "Path to a JSON file holding the flattened operation sequence")
	oracle     = flag.String("oracle", "", "Ground-truth outcome bitstring to visualize")
	configPath = flag.String("config", "", "Optional JSON tuning overrides")
)

func main() {
	flag.Parse()
	log.Printf("qgrid %s", version.String())

	var tuning *config.Tuning
	if *configPath != "" {
		var err error
		tuning, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
	}

	var conn link.Conn
	var sim *link.SimConn
	if *simMode {
		sim = link.NewSimConn(*gridRows, *gridCols, device.DefaultFrameHeight, device.DefaultFrameWidth)
		conn = sim
	} else {
		serial, err := link.Open(*portPath, link.PortOptions{BaudRate: tuning.GetBaudRate()})
		if err != nil {
			log.Fatalf("Failed to open controller: %v", err)
		}
		if d := tuning.GetFrameTimeout(); d > 0 {
			serial.FrameTimeout = d
		}
		conn = serial
	}
	defer conn.Close()

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	emitter := device.NewEmitterGrid(conn, *gridRows, *gridCols)
	sensor := device.NewImageSensor(conn, device.DefaultFrameHeight, device.DefaultFrameWidth)

	if *doCalibrate {
		calibrate(emitter, sensor, db, tuning)
		return
	}

	run(conn, sim, emitter, sensor, db, tuning)
}

func calibrate(emitter *device.EmitterGrid, sensor *device.ImageSensor, db *store.DB, tuning *config.Tuning) {
	opts := tuning.ApplyCalib(calib.Options{
		GridRows:    emitter.Rows(),
		GridCols:    emitter.Cols(),
		Adaptive:    *adaptive,
		SettleDelay: 150 * time.Millisecond,
	})
	mapper := calib.NewMapper(emitter, sensor, opts)

	mapping, report, err := mapper.Calibrate()
	if err != nil {
		log.Fatalf("Calibration failed: %v", err)
	}

	validation := calib.Validate(mapping, emitter.Rows(), emitter.Cols())
	for _, issue := range validation.Issues {
		log.Printf("Calibration issue: %s", issue)
	}
	log.Printf("Calibration: %d/%d sites, coverage %.1f%%, valid=%v",
		report.Found, report.Total, validation.Coverage, validation.Valid)

	if err := db.SaveMapping(*mappingID, emitter.Rows(), emitter.Cols(), mapping); err != nil {
		log.Fatalf("Failed to store mapping: %v", err)
	}
	log.Printf("Mapping %q stored", *mappingID)
}

func run(conn link.Conn, sim *link.SimConn, emitter *device.EmitterGrid, sensor *device.ImageSensor, db *store.DB, tuning *config.Tuning) {
	if *opsPath == "" || *oracle == "" {
		log.Fatal("Both -ops and -oracle are required to run a sequence (or pass -calibrate)")
	}

	data, err := os.ReadFile(*opsPath)
	if err != nil {
		log.Fatalf("Failed to read operation sequence: %v", err)
	}
	var ops []exec.GateOp
	if err := json.Unmarshal(data, &ops); err != nil {
		log.Fatalf("Failed to parse operation sequence: %v", err)
	}

	mapping, rows, cols, err := db.LoadMapping(*mappingID)
	if err != nil {
		log.Fatalf("Failed to load mapping %q: %v (run -calibrate first)", *mappingID, err)
	}
	if rows != emitter.Rows() || cols != emitter.Cols() {
		log.Fatalf("Mapping %q is for a %dx%d grid, controller has %dx%d",
			*mappingID, rows, cols, emitter.Rows(), emitter.Cols())
	}

	pulser := device.NewPulseActuator(conn)
	var clearer exec.ActiveSiteClearer
	if sim != nil {
		clearer = sim
	}
	decoder := decode.NewDecoder()
	tuning.ApplyDecoder(decoder)
	orch := exec.NewOrchestrator(emitter, pulser, sensor, decoder,
		emitter.Rows(), emitter.Cols(), clearer)

	job := exec.NewJob(orch, ops, *oracle, mapping)
	job.Submit()
	bitstring, err := job.Result()
	if err != nil {
		log.Fatalf("Execution failed: %v", err)
	}

	if err := db.SaveResult(job.ID(), bitstring); err != nil {
		log.Printf("Failed to store result: %v", err)
	}
	log.Printf("Job %s: %s", job.ID(), bitstring)
}
