package provisionfakes

import (
	"context"
	"sync"

	"github.com/lumawork/go-sso-gateway/provision"
)

var _ provision.Provisioner = (*FakeProvisioner)(nil)

// FakeProvisioner records every call and returns a canned result or error.
type FakeProvisioner struct {
	lock     sync.Mutex
	requests []*provision.Request

	Result *provision.Result
	Err    error
}

func NewFakeProvisioner() *FakeProvisioner {
	return &FakeProvisioner{}
}

func (fp *FakeProvisioner) Provision(_ context.Context, req *provision.Request) (*provision.Result, error) {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	fp.requests = append(fp.requests, req)
	if fp.Err != nil {
		return nil, fp.Err
	}
	return fp.Result, nil
}

func (fp *FakeProvisioner) CallCount() int {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	return len(fp.requests)
}

func (fp *FakeProvisioner) LastRequest() *provision.Request {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	if len(fp.requests) == 0 {
		return nil
	}
	return fp.requests[len(fp.requests)-1]
}
