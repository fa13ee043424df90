// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"encoding/json"

	"hawkeye/util"
)

// The documents below mirror what the report portal and the analytics service store.
// Every struct keeps the members it does not model in Extra so a fetched document can be merged
// and sent back without losing anything.

type ReportConfig struct {
	Title               string                     `json:"title"`
	Description         string                     `json:"description"`
	AuthorizedRoles     []string                   `json:"authorizedroles"`
	Tags                []string                   `json:"tags"`
	UpdateFrequency     string                     `json:"updatefrequency"`
	Type                string                     `json:"type"`
	Slug                string                     `json:"slug"`
	ReportDuration      ReportDuration             `json:"reportduration"`
	ReportGeneratedDate string                     `json:"reportgenerateddate"`
	ReportConfig        ReportBody                 `json:"reportconfig"`
	Status              string                     `json:"status,omitempty"`
	Extra               map[string]json.RawMessage `json:"-"`
}

type ReportDuration struct {
	StartDate string                     `json:"startdate"`
	EndDate   string                     `json:"enddate"`
	Extra     map[string]json.RawMessage `json:"-"`
}

type ReportBody struct {
	Label       string                     `json:"label"`
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	DataSource  []DataSource               `json:"dataSource"`
	Charts      []ChartBlock               `json:"charts"`
	Extra       map[string]json.RawMessage `json:"-"`
}

type DataSource struct {
	ID    string                     `json:"id"`
	Path  string                     `json:"path"`
	Extra map[string]json.RawMessage `json:"-"`
}

type ChartBlock struct {
	ID          string                     `json:"id"`
	DataSource  ChartDataSource            `json:"dataSource"`
	ChartConfig ChartConfig                `json:"chartConfig"`
	DownloadURL string                     `json:"downloadUrl"`
	Extra       map[string]json.RawMessage `json:"-"`
}

type ChartDataSource struct {
	IDs             []string                   `json:"ids"`
	CommonDimension string                     `json:"commonDimension"`
	Extra           map[string]json.RawMessage `json:"-"`
}

// ChartConfig is the rendering config of one chart. Options are written once when the block is
// created and otherwise carried as is.
type ChartConfig struct {
	ID         string                     `json:"id"`
	ChartType  string                     `json:"chartType"`
	LabelsExpr string                     `json:"labelsExpr"`
	Datasets   []Dataset                  `json:"datasets"`
	Options    json.RawMessage            `json:"options,omitempty"`
	Extra      map[string]json.RawMessage `json:"-"`
}

type Dataset struct {
	DataExpr string                     `json:"dataExpr"`
	Label    string                     `json:"label"`
	Extra    map[string]json.RawMessage `json:"-"`
}

type chartOptions struct {
	Title  optionTitle  `json:"title"`
	Scales optionScales `json:"scales"`
}

type optionTitle struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

type optionScales struct {
	XAxes []optionAxis `json:"xAxes"`
	YAxes []optionAxis `json:"yAxes"`
}

type optionAxis struct {
	ScaleLabel optionScaleLabel `json:"scaleLabel"`
}

type optionScaleLabel struct {
	Display     bool   `json:"display"`
	LabelString string `json:"labelString"`
}

type JobConfig struct {
	ReportID       string                     `json:"reportId"`
	CreatedBy      string                     `json:"createdBy"`
	Description    string                     `json:"description"`
	ReportSchedule string                     `json:"reportSchedule"`
	Config         JobBody                    `json:"config"`
	Extra          map[string]json.RawMessage `json:"-"`
}

type JobBody struct {
	ReportConfig JobReportConfig            `json:"reportConfig"`
	Store        string                     `json:"store"`
	Container    string                     `json:"container"`
	Key          string                     `json:"key"`
	Extra        map[string]json.RawMessage `json:"-"`
}

type JobReportConfig struct {
	ID          string                     `json:"id"`
	QueryType   string                     `json:"queryType"`
	DateRange   DateRange                  `json:"dateRange"`
	MergeConfig *MergeConfig               `json:"mergeConfig,omitempty"`
	Metrics     []Metric                   `json:"metrics"`
	Labels      map[string]string          `json:"labels"`
	Output      []Output                   `json:"output"`
	Extra       map[string]json.RawMessage `json:"-"`
}

// DateRange holds either a rolling StaticInterval or an explicit Interval.
type DateRange struct {
	StaticInterval string                     `json:"staticInterval,omitempty"`
	Interval       *Interval                  `json:"interval,omitempty"`
	Granularity    string                     `json:"granularity"`
	Extra          map[string]json.RawMessage `json:"-"`
}

type Interval struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type MergeConfig struct {
	Frequency     string                     `json:"frequency"`
	Rollup        int                        `json:"rollup"`
	RollupAge     string                     `json:"rollupAge"`
	RollupCol     string                     `json:"rollupCol"`
	RollupRange   int                        `json:"rollupRange"`
	ReportPath    string                     `json:"reportPath"`
	Container     string                     `json:"container"`
	PostContainer string                     `json:"postContainer"`
	Extra         map[string]json.RawMessage `json:"-"`
}

// Metric is one extraction of a job. DruidQuery stays raw so metrics written by other charts
// are resent byte for byte.
type Metric struct {
	Metric     string                     `json:"metric"`
	Label      string                     `json:"label"`
	DruidQuery json.RawMessage            `json:"druidQuery"`
	Extra      map[string]json.RawMessage `json:"-"`
}

type Output struct {
	Type           string                     `json:"type"`
	Label          string                     `json:"label"`
	Metrics        []string                   `json:"metrics"`
	Dims           []string                   `json:"dims"`
	FileParameters []string                   `json:"fileParameters"`
	Extra          map[string]json.RawMessage `json:"-"`
}

func (d *ReportConfig) UnmarshalJSON(data []byte) error {
	type plain ReportConfig
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d ReportConfig) MarshalJSON() ([]byte, error) {
	type plain ReportConfig
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *ReportDuration) UnmarshalJSON(data []byte) error {
	type plain ReportDuration
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d ReportDuration) MarshalJSON() ([]byte, error) {
	type plain ReportDuration
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *ReportBody) UnmarshalJSON(data []byte) error {
	type plain ReportBody
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d ReportBody) MarshalJSON() ([]byte, error) {
	type plain ReportBody
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *DataSource) UnmarshalJSON(data []byte) error {
	type plain DataSource
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d DataSource) MarshalJSON() ([]byte, error) {
	type plain DataSource
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *ChartBlock) UnmarshalJSON(data []byte) error {
	type plain ChartBlock
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d ChartBlock) MarshalJSON() ([]byte, error) {
	type plain ChartBlock
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *ChartDataSource) UnmarshalJSON(data []byte) error {
	type plain ChartDataSource
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d ChartDataSource) MarshalJSON() ([]byte, error) {
	type plain ChartDataSource
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *ChartConfig) UnmarshalJSON(data []byte) error {
	type plain ChartConfig
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d ChartConfig) MarshalJSON() ([]byte, error) {
	type plain ChartConfig
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *Dataset) UnmarshalJSON(data []byte) error {
	type plain Dataset
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d Dataset) MarshalJSON() ([]byte, error) {
	type plain Dataset
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *JobConfig) UnmarshalJSON(data []byte) error {
	type plain JobConfig
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d JobConfig) MarshalJSON() ([]byte, error) {
	type plain JobConfig
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *JobBody) UnmarshalJSON(data []byte) error {
	type plain JobBody
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d JobBody) MarshalJSON() ([]byte, error) {
	type plain JobBody
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *JobReportConfig) UnmarshalJSON(data []byte) error {
	type plain JobReportConfig
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d JobReportConfig) MarshalJSON() ([]byte, error) {
	type plain JobReportConfig
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *DateRange) UnmarshalJSON(data []byte) error {
	type plain DateRange
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d DateRange) MarshalJSON() ([]byte, error) {
	type plain DateRange
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *MergeConfig) UnmarshalJSON(data []byte) error {
	type plain MergeConfig
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d MergeConfig) MarshalJSON() ([]byte, error) {
	type plain MergeConfig
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *Metric) UnmarshalJSON(data []byte) error {
	type plain Metric
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d Metric) MarshalJSON() ([]byte, error) {
	type plain Metric
	return util.MarshalWithExtra(plain(d), d.Extra)
}

func (d *Output) UnmarshalJSON(data []byte) error {
	type plain Output
	return util.UnmarshalInto(data, (*plain)(d), &d.Extra)
}

func (d Output) MarshalJSON() ([]byte, error) {
	type plain Output
	return util.MarshalWithExtra(plain(d), d.Extra)
}

// deepCopy copies a document through its JSON form so merges never share slices or maps with their input.
func deepCopy[T any](src T) (T, error) {
	var dst T
	data, err := json.Marshal(src)
	if err != nil {
		return dst, err
	}
	err = json.Unmarshal(data, &dst)
	return dst, err
}
