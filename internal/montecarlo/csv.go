package montecarlo

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"trade-montecarlo/internal/model"
)

// WriteEnsembleCSV writes one row per week and one column per path.
func WriteEnsembleCSV(path string, ens *Ensemble) error {
	return writeFile(path, func(w io.Writer) error { return EncodeEnsembleCSV(w, ens) })
}

func EncodeEnsembleCSV(out io.Writer, ens *Ensemble) error {
	w := csv.NewWriter(out)

	header := make([]string, 0, ens.NumPaths()+1)
	header = append(header, "week")
	for i := 0; i < ens.NumPaths(); i++ {
		header = append(header, "path_"+strconv.Itoa(i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, ens.NumPaths()+1)
	for t := 0; t < ens.NumWeeks(); t++ {
		row[0] = strconv.Itoa(t + 1)
		for i := 0; i < ens.NumPaths(); i++ {
			row[i+1] = fmtFloat(ens.At(t, i))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteTerminalCSV writes each path's final balance and its outcome class.
func WriteTerminalCSV(path string, startingBalance float64, terminal []float64) error {
	return writeFile(path, func(w io.Writer) error { return EncodeTerminalCSV(w, startingBalance, terminal) })
}

func EncodeTerminalCSV(out io.Writer, startingBalance float64, terminal []float64) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"path", "final_balance", "outcome"}); err != nil {
		return err
	}
	for i, v := range terminal {
		row := []string{
			strconv.Itoa(i),
			fmtFloat(v),
			string(model.OutcomeFromBalances(startingBalance, v)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
