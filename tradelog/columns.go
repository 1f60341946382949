package tradelog

import "strings"

type column int

const (
	colPosition column = iota
	colSide
	colSymbol
	colLots
	colLotChange
	colEntryExec
	colEntrySignal
	colEntryBar
	colEntryDate
	colEntryTime
	colEntryPrice
	colEntryCommission
	colExitExec
	colExitSignal
	colExitBar
	colExitDate
	colExitTime
	colExitPrice
	colExitCommission
	colAvgEntryPrice
	colPL
	colTradePL
	colPLPerLot
	colRealizedPL
	colOpenPL
	colBarsHeld
	colIncomePerBar
	colTotalPL
	colChangePct
	colMAE
	colMAEPct
	colMFE
	colMFEPct

	numColumns
)

// Header names as exported by the analytics tool, followed by English
// aliases. Matching ignores case and whitespace.
var columnHeaders = [numColumns][]string{
	colPosition:        {"№ Позиции", "Position No", "Position #", "Unnamed: 0"},
	colSide:            {"Позиция", "Position", "Side"},
	colSymbol:          {"Символ", "Symbol"},
	colLots:            {"Лоты", "Lots"},
	colLotChange:       {"Изменение/Максимум Лотов", "Lot Change", "Change/Max Lots"},
	colEntryExec:       {"Исполнение входа", "Entry Execution"},
	colEntrySignal:     {"Сигнал входа", "Entry Signal"},
	colEntryBar:        {"Бар входа", "Entry Bar"},
	colEntryDate:       {"Дата входа", "Entry Date"},
	colEntryTime:       {"Время входа", "Entry Time"},
	colEntryPrice:      {"Цена входа", "Entry Price"},
	colEntryCommission: {"Комиссия входа", "Entry Commission"},
	colExitExec:        {"Исполнение выхода", "Exit Execution"},
	colExitSignal:      {"Сигнал выхода", "Exit Signal"},
	colExitBar:         {"Бар выхода", "Exit Bar"},
	colExitDate:        {"Дата выхода", "Exit Date"},
	colExitTime:        {"Время выхода", "Exit Time"},
	colExitPrice:       {"Цена выхода", "Exit Price"},
	colExitCommission:  {"Комиссия выхода", "Exit Commission"},
	colAvgEntryPrice:   {"Средневзвешенная цена входа", "Weighted Avg Entry Price"},
	colPL:              {"П/У", "P/L"},
	colTradePL:         {"П/У сделки", "Trade P/L"},
	colPLPerLot:        {"П/У с одного лота", "P/L Per Lot"},
	colRealizedPL:      {"Зафиксированная П/У", "Realized P/L"},
	colOpenPL:          {"Открытая П/У", "Open P/L"},
	colBarsHeld:        {"Продолж. (баров)", "Duration (bars)"},
	colIncomePerBar:    {"Доход/Бар", "Income/Bar"},
	colTotalPL:         {"Общий П/У", "Total P/L"},
	colChangePct:       {"% изменения", "% Change"},
	colMAE:             {"MAE"},
	colMAEPct:          {"MAE %"},
	colMFE:             {"MFE"},
	colMFEPct:          {"MFE %"},
}

var requiredColumns = []column{
	colSymbol, colLots, colLotChange,
	colEntryExec, colEntrySignal, colEntryBar, colEntryDate, colEntryTime, colEntryPrice, colEntryCommission,
	colExitExec, colExitSignal, colExitBar, colExitDate, colExitTime, colExitPrice, colExitCommission,
}

// exit-side fields cleared when the exit date says the position is open
var exitColumns = []column{
	colExitExec, colExitSignal, colExitBar, colExitDate, colExitTime,
	colExitPrice, colExitCommission, colTradePL, colRealizedPL,
}

func headerKey(s string) string {
	return strings.ToLower(stripSpace(s))
}

var headerIndex = func() map[string]column {
	m := make(map[string]column)
	for c, names := range columnHeaders {
		for _, n := range names {
			m[headerKey(n)] = column(c)
		}
	}
	return m
}()

// layout maps each known column to its index in the record, -1 if absent.
type layout struct {
	idx   [numColumns]int
	names [numColumns]string
}

func newLayout(header []string) *layout {
	l := &layout{}
	for i := range l.idx {
		l.idx[i] = -1
	}
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		key := headerKey(h)
		if key == "" && i == 0 {
			key = headerKey(columnHeaders[colPosition][0])
		}
		c, ok := headerIndex[key]
		if !ok || l.idx[c] >= 0 {
			continue
		}
		l.idx[c] = i
		l.names[c] = strings.TrimSpace(h)
	}
	return l
}

func (l *layout) missing() []string {
	var out []string
	for _, c := range requiredColumns {
		if l.idx[c] < 0 {
			out = append(out, columnHeaders[c][0])
		}
	}
	return out
}

func (l *layout) name(c column) string {
	if l.names[c] != "" {
		return l.names[c]
	}
	return columnHeaders[c][0]
}
