package test

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/celestiaorg/peakinvestigator/internal/api/middleware"
	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/archive"
	"github.com/celestiaorg/peakinvestigator/internal/experiment"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

const (
	// ServiceDatetime is reported by every STATUS and DELETE reply
	ServiceDatetime = "2024-03-01 12:00:00"
	// ServiceCost is the ActualCost of every finished job
	ServiceCost = "1.25"

	defaultPage = "<html><head><title>Welcome</title></head><body>It works!</body></html>"
)

// remoteJob is the service-side view of a job
type remoteJob struct {
	ID        string
	ScanCount int
	InputFile string
	Tier      string
	Version   string
	Running   bool
	Done      bool
}

// FakeService emulates the PeakInvestigator control plane. Files named by
// RUN and PREP are read from the SFTP drop so replies follow what the
// client actually uploaded.
type FakeService struct {
	mu sync.Mutex

	app   *fiber.App
	codec archive.Codec

	account types.Account
	drop    types.TransferCredentials

	funds     string
	tiers     []types.TierOption
	versions  []string
	prepPolls int
	html      bool

	nextJob   int
	jobs      map[string]*remoteJob
	prepSeen  map[string]int
	actions   []types.Action
	requests  []url.Values
	deletions []string
}

// NewFakeService builds a service that accepts acct and hands out drop as
// the SFTP grant.
func NewFakeService(acct types.Account, drop types.TransferCredentials) *FakeService {
	f := &FakeService{
		codec:    archive.NewTarCodec(),
		account:  acct,
		drop:     drop,
		funds:    "100.00",
		tiers:    []types.TierOption{{Name: "RTO-24", EstimatedCost: "1.00"}, {Name: "RTO-0", EstimatedCost: "4.00"}},
		versions: []string{"1.0.1", "1.2"},
		nextJob:  1000,
		jobs:     make(map[string]*remoteJob),
		prepSeen: make(map[string]int),
	}

	f.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	f.app.Use(middleware.Logger())
	f.app.Put(client.APISuffix, f.handle)
	return f
}

// App returns the Fiber app serving the API
func (f *FakeService) App() *fiber.App {
	return f.app
}

// SetTerms replaces the tiers and versions offered by INIT
func (f *FakeService) SetTerms(tiers []types.TierOption, versions []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tiers = tiers
	f.versions = versions
}

// SetPrepPolls sets how many PREP polls per file answer Analyzing
func (f *FakeService) SetPrepPolls(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepPolls = n
}

// ServeHTML makes every action answer with a web page, as a misconfigured
// server address would.
func (f *FakeService) ServeHTML(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.html = on
}

// Actions returns every action received, in order
func (f *FakeService) Actions() []types.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Action(nil), f.actions...)
}

// LastRequest returns the form of the most recent request
func (f *FakeService) LastRequest() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// Deletions returns the ids of released jobs
func (f *FakeService) Deletions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletions...)
}

// HasJob reports whether the service still holds jobID
func (f *FakeService) HasJob(jobID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.jobs[jobID]
	return ok
}

// ResultsFile names the results bundle of jobID
func ResultsFile(jobID string) string {
	return jobID + ".results.tar"
}

// ResultsPath is where Finish writes the results of jobID in the drop
func (f *FakeService) ResultsPath(jobID string) string {
	return filepath.Join(f.drop.Directory, f.account.ID, ResultsFile(jobID))
}

// Finish completes a running job: the most intense point of every uploaded
// scan becomes its single picked peak.
func (f *FakeService) Finish(jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[jobID]
	if !ok || !job.Running {
		return fmt.Errorf("job %s is not running", jobID)
	}
	spectra, err := f.codec.Load(filepath.Join(f.drop.Directory, job.InputFile))
	if err != nil {
		return fmt.Errorf("error reading input of %s: %w", jobID, err)
	}

	picked := &experiment.Experiment{}
	for _, s := range spectra {
		out := experiment.Spectrum{Index: s.Index, Type: experiment.SpectrumTypePeaks}
		if len(s.Peaks) > 0 {
			top := s.Peaks[0]
			for _, p := range s.Peaks[1:] {
				if p.Intensity > top.Intensity {
					top = p
				}
			}
			out.Peaks = []experiment.Peak{top}
		}
		picked.Spectra = append(picked.Spectra, out)
	}

	results := f.ResultsPath(jobID)
	if err := os.MkdirAll(filepath.Dir(results), 0o750); err != nil {
		return fmt.Errorf("error creating results directory: %w", err)
	}
	if err := f.codec.Store(results, picked); err != nil {
		return fmt.Errorf("error writing results of %s: %w", jobID, err)
	}
	job.Done = true
	return nil
}

func (f *FakeService) handle(c *fiber.Ctx) error {
	form, err := url.ParseQuery(string(c.Body()))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("malformed form")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	action := types.Action(form.Get("Action"))
	f.actions = append(f.actions, action)
	f.requests = append(f.requests, form)

	if f.html {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(defaultPage)
	}
	if form.Get("Version") != client.ProtocolVersion {
		return reject(c, "Unsupported interface version")
	}
	if form.Get("User") != f.account.Username || form.Get("Code") != f.account.Secret {
		return reject(c, "Invalid username or password")
	}

	var reply fiber.Map
	switch action {
	case types.ActionInit:
		reply, err = f.open(form)
	case types.ActionSFTP:
		reply, err = f.sftp(form)
	case types.ActionRun:
		reply, err = f.run(form)
	case types.ActionPrep:
		reply, err = f.prep(form)
	case types.ActionStatus:
		reply, err = f.status(form)
	case types.ActionDelete:
		reply, err = f.remove(form)
	default:
		err = fmt.Errorf("Unknown action %q", action)
	}
	if err != nil {
		return reject(c, err.Error())
	}
	return c.JSON(reply)
}

func reject(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"Error": msg})
}

func (f *FakeService) checkAccount(form url.Values) error {
	if form.Get("ID") != f.account.ID {
		return errors.New("Account not found")
	}
	return nil
}

func (f *FakeService) open(form url.Values) (fiber.Map, error) {
	if err := f.checkAccount(form); err != nil {
		return nil, err
	}
	scans, err := strconv.Atoi(form.Get("ScanCount"))
	if err != nil || scans <= 0 {
		return nil, errors.New("Invalid ScanCount")
	}
	minMass, err := strconv.ParseFloat(form.Get("MinMass"), 64)
	if err != nil {
		return nil, errors.New("Invalid MinMass")
	}
	maxMass, err := strconv.ParseFloat(form.Get("MaxMass"), 64)
	if err != nil || maxMass < minMass {
		return nil, errors.New("Invalid MaxMass")
	}

	f.nextJob++
	id := fmt.Sprintf("P-%d", f.nextJob)
	f.jobs[id] = &remoteJob{ID: id, ScanCount: scans}

	rtos := make([]fiber.Map, 0, len(f.tiers))
	for _, t := range f.tiers {
		rtos = append(rtos, fiber.Map{"RTO": t.Name, "EstCost": t.EstimatedCost})
	}
	return fiber.Map{"Job": id, "Funds": f.funds, "RTOs": rtos, "PI_Versions": f.versions}, nil
}

func (f *FakeService) sftp(form url.Values) (fiber.Map, error) {
	if err := f.checkAccount(form); err != nil {
		return nil, err
	}
	return fiber.Map{
		"Host":      f.drop.Host,
		"Port":      f.drop.Port,
		"Directory": f.drop.Directory,
		"Login":     f.drop.Login,
		"Password":  f.drop.Secret,
	}, nil
}

func (f *FakeService) lookup(form url.Values) (*remoteJob, error) {
	job, ok := f.jobs[form.Get("Job")]
	if !ok {
		return nil, errors.New("Job not found")
	}
	return job, nil
}

func (f *FakeService) run(form url.Values) (fiber.Map, error) {
	job, err := f.lookup(form)
	if err != nil {
		return nil, err
	}
	input := form.Get("InputFile")
	if _, err := os.Stat(filepath.Join(f.drop.Directory, input)); err != nil {
		return nil, errors.New("Input file not found")
	}
	job.InputFile = input
	job.Tier = form.Get("RTO")
	job.Version = form.Get("PIVersion")
	job.Running = true
	return fiber.Map{"Job": job.ID}, nil
}

func (f *FakeService) prep(form url.Values) (fiber.Map, error) {
	if err := f.checkAccount(form); err != nil {
		return nil, err
	}
	file := form.Get("File")
	f.prepSeen[file]++
	if f.prepSeen[file] <= f.prepPolls {
		return fiber.Map{"Status": "Analyzing"}, nil
	}
	spectra, err := f.codec.Load(filepath.Join(f.drop.Directory, file))
	if err != nil {
		return fiber.Map{"Status": "Error"}, nil
	}
	return fiber.Map{"Status": "Ready", "ScanCount": strconv.Itoa(len(spectra)), "MSType": "TOF"}, nil
}

func (f *FakeService) status(form url.Values) (fiber.Map, error) {
	job, err := f.lookup(form)
	if err != nil {
		return nil, err
	}
	if !job.Done {
		return fiber.Map{"Status": "Running", "Datetime": ServiceDatetime}, nil
	}
	return fiber.Map{
		"Status":      "Done",
		"Datetime":    ServiceDatetime,
		"ResultsFile": ResultsFile(job.ID),
		"JobLogFile":  job.ID + ".log.txt",
		"ActualCost":  ServiceCost,
	}, nil
}

func (f *FakeService) remove(form url.Values) (fiber.Map, error) {
	job, err := f.lookup(form)
	if err != nil {
		return nil, err
	}
	delete(f.jobs, job.ID)
	f.deletions = append(f.deletions, job.ID)
	return fiber.Map{"Job": job.ID, "Datetime": ServiceDatetime}, nil
}
