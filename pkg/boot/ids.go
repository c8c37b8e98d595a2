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

package boot

// Test identifiers, carried in the low byte of every status word.
const (
	IDCsr          uint32 = 0x01
	IDWfi          uint32 = 0x02
	IDLfsr         uint32 = 0x03
	IDAll          uint32 = 0x04
	IDFast8        uint32 = 0x05
	IDFast16       uint32 = 0x06
	IDLarge        uint32 = 0x07
	IDLargeSpecial uint32 = 0x08
	IDFast64       uint32 = 0x09
	IDIOCache      uint32 = 0x0A
	IDApb          uint32 = 0x0B
	IDPl230        uint32 = 0x0C
	IDSce          uint32 = 0x0D
	IDRram         uint32 = 0x0E
	IDXip          uint32 = 0x0F
	IDPio          uint32 = 0x10
	IDBio          uint32 = 0x11
)
