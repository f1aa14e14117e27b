/*
scenario.go Random instance shaping for residential demand-response studies.
Given normalized load/PV/temperature profiles and device ownership rates, the
generator samples a device fleet per household and returns households ready
for assembly. Generation is deterministic per seed: every household draws
from its own sub-seeded source, so an instance is reproducible and each
household's fleet does not depend on how many households precede it.
*/

package scenario

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math"
	"math/rand"

	"github.com/ohowland/dres_core/internal/pkg/device"
	"github.com/ohowland/dres_core/internal/pkg/device/battery"
	"github.com/ohowland/dres_core/internal/pkg/device/curtailable"
	"github.com/ohowland/dres_core/internal/pkg/device/deferrable"
	"github.com/ohowland/dres_core/internal/pkg/device/fixedload"
	"github.com/ohowland/dres_core/internal/pkg/device/shiftable"
	"github.com/ohowland/dres_core/internal/pkg/device/thermal"
	"github.com/ohowland/dres_core/internal/pkg/household"
)

// OwnershipRates holds the probability that a household owns each device
// kind. ClothesDryer is conditional: only clothes-washer owners may own a
// dryer, at rate ClothesDryer/ClothesWasher.
type OwnershipRates struct {
	PV            float64 `json:"pv"`
	Dishwasher    float64 `json:"dishwasher"`
	ClothesWasher float64 `json:"clothes_washer"`
	ClothesDryer  float64 `json:"clothes_dryer"`
	Heating       float64 `json:"heating"`
}

// DeviceParams enumerates the numeric defaults per device kind.
type DeviceParams struct {
	DWCycleLength int     `json:"dw_cycle_length"`
	CWCycleLength int     `json:"cw_cycle_length"`
	CDCycleLength int     `json:"cd_cycle_length"`
	EVPwrMin      float64 `json:"ev_pwr_min"`
	EVPwrMax      float64 `json:"ev_pwr_max"`
	EVEnergyMin   float64 `json:"ev_energy_min"`
	EVEnergyMax   float64 `json:"ev_energy_max"`
	HeatPwrMin    float64 `json:"heat_pwr_min"`
	HeatPwrMax    float64 `json:"heat_pwr_max"`
	HeatEta       float64 `json:"heat_eta"`
	HeatC         float64 `json:"heat_c"`
	HeatMu        float64 `json:"heat_mu"`
	HeatTempInit  float64 `json:"heat_temp_init"`
	HeatTempMin   float64 `json:"heat_temp_min"`
	HeatTempMax   float64 `json:"heat_temp_max"`
	BatSOCMin     float64 `json:"bat_soc_min"`
	BatSOCMax     float64 `json:"bat_soc_max"`
	BatSOCInit    float64 `json:"bat_soc_init"`
	BatPwrMin     float64 `json:"bat_pwr_min"`
	BatPwrMax     float64 `json:"bat_pwr_max"`
	BatEffcy      float64 `json:"bat_effcy"`
	BatHalfLife   float64 `json:"bat_half_life"`
	NetLoadMax    float64 `json:"net_load_max"`
}

// DefaultDeviceParams returns the study's default device parameters: two-hour
// dishwasher and washer cycles, a three-hour dryer cycle, a NEMA 14-50 EV
// charger needing 10 kWh per horizon during hours 14-23, and a 13.5 kWh home
// battery with negligible self-discharge.
func DefaultDeviceParams() DeviceParams {
	return DeviceParams{
		DWCycleLength: 2,
		CWCycleLength: 2,
		CDCycleLength: 3,
		EVPwrMin:      1.1,
		EVPwrMax:      7.7,
		EVEnergyMin:   10.0,
		EVEnergyMax:   10.0,
		HeatPwrMin:    0.0,
		HeatPwrMax:    10.0,
		HeatEta:       1.0,
		HeatC:         3.0,
		HeatMu:        0.2,
		HeatTempInit:  20.0,
		HeatTempMin:   18.0,
		HeatTempMax:   22.0,
		BatSOCMin:     0.0,
		BatSOCMax:     13.5,
		BatSOCInit:    0.0,
		BatPwrMin:     0.0,
		BatPwrMax:     5.0,
		BatEffcy:      0.95,
		BatHalfLife:   693149,
		NetLoadMax:    10.0,
	}
}

// DefaultOwnershipRates returns the baseline appliance penetration used when
// no survey data is supplied.
func DefaultOwnershipRates() OwnershipRates {
	return OwnershipRates{
		PV:            0.3,
		Dishwasher:    0.65,
		ClothesWasher: 0.9,
		ClothesDryer:  0.75,
		Heating:       0.6,
	}
}

// ReadDeviceParams loads device parameters from a JSON file.
func ReadDeviceParams(configPath string) (DeviceParams, error) {
	jsonConfig, err := ioutil.ReadFile(configPath)
	if err != nil {
		return DeviceParams{}, err
	}
	params := DeviceParams{}
	if err := json.Unmarshal(jsonConfig, &params); err != nil {
		return DeviceParams{}, err
	}
	return params, nil
}

// ReadOwnershipRates loads ownership rates from a JSON file.
func ReadOwnershipRates(configPath string) (OwnershipRates, error) {
	jsonConfig, err := ioutil.ReadFile(configPath)
	if err != nil {
		return OwnershipRates{}, err
	}
	rates := OwnershipRates{}
	if err := json.Unmarshal(jsonConfig, &rates); err != nil {
		return OwnershipRates{}, err
	}
	return rates, nil
}

// Profiles holds the per-step driving data for generation, aligned to the
// time window. LoadNorm and PVNorm are normalized (mean 1) shapes;
// Temperature is the exterior temperature in degrees C.
type Profiles struct {
	LoadNorm    []float64
	PVNorm      []float64
	Temperature []float64
}

// Generate samples n households of devices over a horizon of T steps.
// The horizon is assumed to start at 5am so EV charging hours 8pm-5am map to
// steps 14-23 of each day.
func Generate(n int, horizon int, profiles Profiles, rates OwnershipRates, params DeviceParams, seed int64) ([]*household.Household, error) {
	if n < 1 {
		return nil, fmt.Errorf("scenario: household count must be positive, got %d", n)
	}
	if len(profiles.LoadNorm) != horizon || len(profiles.PVNorm) != horizon || len(profiles.Temperature) != horizon {
		return nil, fmt.Errorf("scenario: profile lengths (%d, %d, %d) != horizon %d",
			len(profiles.LoadNorm), len(profiles.PVNorm), len(profiles.Temperature), horizon)
	}

	rng := rand.New(rand.NewSource(seed))
	hhSeeds := make([]int64, n)
	for i := range hhSeeds {
		hhSeeds[i] = rng.Int63()
	}

	nDay := horizon / 24

	households := make([]*household.Household, n)
	for i := 0; i < n; i++ {
		r := rand.New(rand.NewSource(hhSeeds[i]))

		// household scaling factor in [0.5, 1.5]
		scale := 0.5 + r.Float64()

		dev := make([]device.Device, 0)

		renew := r.Float64() < rates.PV

		// all uncontrollable loads aggregate into one native fixed load
		nativeLoad := make([]float64, horizon)
		for t := 0; t < horizon; t++ {
			nativeLoad[t] = math.Max(0, scale*(profiles.LoadNorm[t]+0.05*r.NormFloat64()))
		}
		fl, err := fixedload.New(fixedload.Config{
			Label: fmt.Sprintf("load_%d", i),
			Load:  nativeLoad,
		})
		if err != nil {
			return nil, err
		}
		dev = append(dev, fl)

		// curtailable PV generation (negative load)
		if renew {
			pvProd := make([]float64, horizon)
			for t := 0; t < horizon; t++ {
				pvProd[t] = -scale * profiles.PVNorm[t] * r.Float64()
			}
			pv, err := curtailable.New(curtailable.Config{
				Label:  fmt.Sprintf("PV_%d", i),
				Load:   pvProd,
				Binary: true,
			})
			if err != nil {
				return nil, err
			}
			dev = append(dev, pv)
		}

		// uninterruptible cycles, one per day per owned appliance
		if r.Float64() < rates.Dishwasher {
			loads, err := dailyCycles(fmt.Sprintf("shift_dw_%d", i), nDay, params.DWCycleLength)
			if err != nil {
				return nil, err
			}
			dev = append(dev, loads...)
		}
		clothesWasher := false
		if r.Float64() < rates.ClothesWasher {
			clothesWasher = true
			loads, err := dailyCycles(fmt.Sprintf("shift_cw_%d", i), nDay, params.CWCycleLength)
			if err != nil {
				return nil, err
			}
			dev = append(dev, loads...)
		}
		// only clothes-washer owners may own a dryer
		pCD := 0.0
		if rates.ClothesWasher > 0 {
			pCD = rates.ClothesDryer / rates.ClothesWasher
		}
		if clothesWasher && r.Float64() < pCD {
			loads, err := dailyCycles(fmt.Sprintf("shift_cd_%d", i), nDay, params.CDCycleLength)
			if err != nil {
				return nil, err
			}
			dev = append(dev, loads...)
		}

		// deferrable EV charging during hours 14-23 of each day
		if renew {
			evPwrMin := make([]float64, horizon)
			evPwrMax := make([]float64, horizon)
			for t := 0; t < horizon; t++ {
				if t%24 >= 14 {
					evPwrMin[t] = params.EVPwrMin
					evPwrMax[t] = params.EVPwrMax
				}
			}
			ev, err := deferrable.New(deferrable.Config{
				Label:     fmt.Sprintf("EV_%d", i),
				EnergyMin: params.EVEnergyMin,
				EnergyMax: params.EVEnergyMax,
				PwrMin:    evPwrMin,
				PwrMax:    evPwrMax,
			})
			if err != nil {
				return nil, err
			}
			dev = append(dev, ev)
		}

		// thermostat
		if r.Float64() < rates.Heating {
			tempMin := make([]float64, horizon)
			tempMax := make([]float64, horizon)
			tempExt := make([]float64, horizon)
			for t := 0; t < horizon; t++ {
				tempMin[t] = params.HeatTempMin
				tempMax[t] = params.HeatTempMax
				tempExt[t] = profiles.Temperature[t] + 0.5*r.NormFloat64()
			}
			heat, err := thermal.New(thermal.Config{
				Label:     fmt.Sprintf("heat_%d", i),
				TempMin:   tempMin,
				TempMax:   tempMax,
				TempExt:   tempExt,
				TempInit:  params.HeatTempInit,
				PwrThMin:  params.HeatPwrMin,
				PwrThMax:  params.HeatPwrMax,
				HeatCpty:  params.HeatC,
				ThEff:     params.HeatEta,
				CondCoeff: params.HeatMu,
			})
			if err != nil {
				return nil, err
			}
			dev = append(dev, heat)
		}

		// home battery
		if renew {
			bat, err := battery.New(battery.Config{
				Label:     fmt.Sprintf("bat_%d", i),
				PwrChgMin: params.BatPwrMin,
				PwrChgMax: params.BatPwrMax,
				PwrDisMin: params.BatPwrMin,
				PwrDisMax: params.BatPwrMax,
				SOCMin:    params.BatSOCMin,
				SOCMax:    params.BatSOCMax,
				SOCInit:   params.BatSOCInit,
				EffChg:    params.BatEffcy,
				EffDis:    params.BatEffcy,
				HalfLife:  params.BatHalfLife,
			})
			if err != nil {
				return nil, err
			}
			dev = append(dev, bat)
		}

		hh, err := household.New(fmt.Sprintf("HH_%d", i), params.NetLoadMax, dev...)
		if err != nil {
			return nil, err
		}
		households[i] = hh
	}

	return households, nil
}

// dailyCycles returns one single-cycle shiftable load per full day, each free
// to start anywhere in its day as long as the cycle finishes before midnight.
func dailyCycles(label string, nDay int, cycleLength int) ([]device.Device, error) {
	cycle := make([]float64, cycleLength)
	for d := range cycle {
		cycle[d] = 1
	}

	loads := make([]device.Device, 0, nDay)
	for day := 0; day < nDay; day++ {
		sl, err := shiftable.New(shiftable.Config{
			Label:     fmt.Sprintf("%s_%d", label, day),
			TStartMin: []int{24 * day},
			TStartMax: []int{24*(day+1) - 1 - cycleLength},
			Cycles:    [][]float64{cycle},
		})
		if err != nil {
			return nil, err
		}
		loads = append(loads, sl)
	}
	return loads, nil
}

// TotalLoadBounds returns the study's aggregator-level load corridor: a floor
// of zero and a per-step cap of 180*n/24 kW for n households.
func TotalLoadBounds(n int, horizon int) ([]float64, []float64) {
	min := make([]float64, horizon)
	max := make([]float64, horizon)
	for t := 0; t < horizon; t++ {
		max[t] = 180.0 * float64(n) / 24.0
	}
	return min, max
}
