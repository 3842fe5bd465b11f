// Package test provides infrastructure and utilities for integration testing
// of PeakInvestigator job orchestration.
//
// The test package runs every real component against in-process stand-ins
// for the remote service:
//
//   - TestEnvironment: a complete setup with a fake control plane served
//     by a Fiber app, a real SFTP drop backed by a temporary directory, a
//     real API client and dialer, and a sqlite job ledger
//
//   - FakeService: a scriptable PeakInvestigator control plane that
//     validates credentials, issues jobs and answers PREP, STATUS and
//     DELETE from the files actually uploaded over SFTP
//
// Example Usage:
//
//	func TestExample(t *testing.T) {
//	    env := test.NewTestEnvironment(t)
//	    defer env.Cleanup()
//
//	    session := env.NewSession()
//	    res, err := session.Run(env.Context(), services.SubmitCommand{Experiment: exp})
//	    // env.Service.Finish(res.Job.JobID) completes the job remotely
//	}
package test
