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

// Package ramtest holds the memory and cache self-tests. Every test writes a
// pattern, reads it back, compares checksums and reports one status.
package ramtest

import (
	"jinr.ru/greenlab/go-daric/pkg/cpu"
	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/lfsr"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

// LFSRLen is the only region length the scrambled test accepts.
const LFSRLen = lfsr.Period9 + 1

// word folds an element into the 32-bit checksum domain.
func word[T csr.Word](v T) uint32 {
	x := uint64(v)
	return uint32(x) + uint32(x>>32)
}

func sum[T csr.Word](r csr.Region[T], indexes func(yield func(int))) uint32 {
	var s uint32
	indexes(func(i int) {
		s += word(r.Load(i))
	})
	return s
}

func every(n, stride int) func(yield func(int)) {
	return func(yield func(int)) {
		for i := 0; i < n; i += stride {
			yield(i)
		}
	}
}

// stride is the number of elements per cache line.
func stride[T csr.Word](r csr.Region[T]) int {
	s := int(soc.CacheLineBytes / r.Width())
	if s == 0 {
		return 1
	}
	return s
}

// All writes its index to every element.
func All[T csr.Word](r csr.Region[T], id uint32, sink report.Sink) report.Status {
	var want uint32
	for i := 0; i < r.Len(); i++ {
		v := T(i)
		r.Store(i, v)
		want += word(v)
	}
	got := sum(r, every(r.Len(), 1))
	return report.Emit(sink, report.Check(id, want, got))
}

// Fast touches only the first element of every cache line.
func Fast[T csr.Word](r csr.Region[T], id uint32, sink report.Sink) report.Status {
	var want uint32
	lines := every(r.Len(), stride(r))
	lines(func(i int) {
		v := T(i)
		r.Store(i, v)
		want += word(v)
	})
	got := sum(r, lines)
	return report.Emit(sink, report.Check(id, want, got))
}

// FastSpecialCase1 stores the first element of every line twice back to
// back, the first time with the inverted value, then stores the second
// element. It catches store merging that loses the later of two writes.
func FastSpecialCase1[T csr.Word](r csr.Region[T], id uint32, sink report.Sink) report.Status {
	var want uint32
	step := stride(r)
	pairs := func(yield func(int)) {
		for i := 0; i+1 < r.Len(); i += step {
			yield(i)
			yield(i + 1)
		}
	}
	for i := 0; i+1 < r.Len(); i += step {
		first, second := T(i), T(i+1)
		r.Store(i, ^first)
		r.Store(i, first)
		r.Store(i+1, second)
		want += word(first) + word(second)
	}
	got := sum(r, pairs)
	return report.Emit(sink, report.Check(id, want, got))
}

// LFSR writes step*3 to the element selected by the 9-bit LFSR for each of
// its 511 states, and 0 to element 0 which the LFSR never reaches. Summing
// in address order after a cache flush must give the same total, which only
// holds when every element was written exactly once.
func LFSR[T csr.Word](r csr.Region[T], id uint32, sink report.Sink, core cpu.Core) report.Status {
	if r.Len() != LFSRLen {
		return report.Emit(sink, report.Misconfigured(id, report.ReasonLength))
	}
	var want uint32
	state := uint32(1)
	for step := 1; step <= lfsr.Period9; step++ {
		v := T(step * 3)
		r.Store(int(state), v)
		want += word(v)
		state = lfsr.Next9(state)
	}
	r.Store(0, 0)
	core.FlushDataCache()

	got := sum(r, every(r.Len(), 1))
	return report.Emit(sink, report.Check(id, want, got))
}
