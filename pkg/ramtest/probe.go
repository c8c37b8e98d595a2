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

package ramtest

import (
	"jinr.ru/greenlab/go-daric/pkg/cpu"
	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

const (
	probeSets    = 4
	probePasses  = 3
	ioIterations = 100

	ioSeed uint32 = 0x5a5a_0000
)

// CacheBoundaryProbe writes the first and last word of each of four sets
// just below and just above cacheBytes from base, then reads them all back
// twice and once more after a flush. Each pass is reported as a marker
// 0xcace000p followed by the words read. Nothing is judged, the words are for
// a human or a bench script.
func CacheBoundaryProbe(bus csr.Bus, core cpu.Core, sink report.Sink, base, cacheBytes uint32) {
	setBytes := cacheBytes / probeSets
	var addrs [2 * 2 * probeSets]uint32
	n := 0
	for _, half := range [2]uint32{0, cacheBytes} {
		for s := uint32(0); s < probeSets; s++ {
			first := base + half + s*setBytes
			addrs[n], addrs[n+1] = first, first+setBytes-4
			n += 2
		}
	}
	for i, addr := range addrs {
		bus.Write32(addr, report.CacheTag|uint32(i))
	}
	bus.Fence()

	for pass := uint32(1); pass <= probePasses; pass++ {
		if pass == probePasses {
			core.FlushDataCache()
		}
		sink.Report(report.CacheTag | pass)
		for _, addr := range addrs {
			sink.Report(bus.Read32(addr))
		}
	}
}

// IOCacheProbe checks that loads from I/O registers are never served from
// the cache. The add register is fed its own response and must stay in step
// with a model that adds five per round, the increment register must advance
// by three on every read. A pass carries the final model value.
func IOCacheProbe(bus csr.Bus, id uint32, sink report.Sink) report.Status {
	ctrl := csr.New(bus, soc.SimCtrlBase)
	checkstate := ioSeed
	ctrl.Write(soc.SimAdd5, checkstate)
	for i := 0; i < ioIterations; i++ {
		got := ctrl.Read(soc.SimAdd5)
		checkstate += 5
		if got != checkstate {
			return report.Emit(sink, report.Failed(id, checkstate, got))
		}
		ctrl.Write(soc.SimAdd5, got)
	}
	ctrl.Write(soc.SimInc3, 0)
	for i := uint32(1); i <= ioIterations; i++ {
		if got := ctrl.Read(soc.SimInc3); got != i*3 {
			return report.Emit(sink, report.Failed(id, i*3, got))
		}
	}
	return report.Emit(sink, report.Passed(id, checkstate))
}
