/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package command

import (
	"errors"
	"fmt"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-daric/pkg/config"
	"jinr.ru/greenlab/go-daric/pkg/sim"
	"jinr.ru/greenlab/go-daric/pkg/srv"
	"jinr.ru/greenlab/go-daric/pkg/store"
)

// ApiClient talks to the debug bridge of a running simulation.
type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.Api.Address, cfg.Api.Port),
	}
}

func (c *ApiClient) get(path string, v interface{}) error {
	r, err := req.Get(c.ApiPrefix + path)
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return r.ToJSON(v)
}

// RegRead sends request to read a bus word
func (c *ApiClient) RegRead(addr string) (string, error) {
	reg := &srv.RegHex{}
	if err := c.get(fmt.Sprintf("/reg/r/%s", addr), reg); err != nil {
		return "", err
	}
	return reg.Value, nil
}

// RegWrite sends request to write a bus word
func (c *ApiClient) RegWrite(addr, value string) error {
	reg := &srv.RegHex{
		Addr:  addr,
		Value: value,
	}
	r, err := req.Post(fmt.Sprintf("%s/reg/w", c.ApiPrefix), req.BodyJSON(reg))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// Report returns the words reported so far by the running boot sequence
func (c *ApiClient) Report() (*srv.ReportResp, error) {
	resp := &srv.ReportResp{}
	if err := c.get("/report", resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *ApiClient) Clock() (*sim.Clock, error) {
	clk := &sim.Clock{}
	if err := c.get("/clock", clk); err != nil {
		return nil, err
	}
	return clk, nil
}

func (c *ApiClient) Runs() ([]*store.RunMeta, error) {
	var runs []*store.RunMeta
	if err := c.get("/runs", &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (c *ApiClient) Run(id uint64) (*store.Run, error) {
	run := &store.Run{}
	if err := c.get(fmt.Sprintf("/runs/%d", id), run); err != nil {
		return nil, err
	}
	return run, nil
}
