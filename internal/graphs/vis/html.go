package vis

var html = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <title>malsim replay</title>
    <style>
        * {
            margin: 0;
        }
        body {
            background: %s;
        }
        #mynetwork {
            width: 100vw;
            height: 100vh;
        }
        #step {
            position: absolute;
            top: 8px;
            left: 8px;
            font-family: monospace;
            color: #9CA3AF;
        }
    </style>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <script type="text/javascript"
      src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
  </head>
  <body>
    <div id="step">step 0</div>
    <div id="mynetwork"></div>
    <script type="text/javascript">
let replay = [%s
];

var container = document.getElementById("mynetwork");
var stepLabel = document.getElementById("step");

var data = {
  nodes: new vis.DataSet([]),
  edges: new vis.DataSet([]),
};

var options = {
  physics: {
    enabled: false,
  },
  nodes: {
    shape: 'dot',
    size: 8,
  },
  edges: {
    color: '#9CA3AF',
  },
};
var network = new vis.Network(container, data, options);

let index = 0;

function addItem() {
    if (index < replay.length) {
        const item = replay[index];
        const dataType = item.type;

        if (dataType === "node") {
            data.nodes.add(item.data);
        } else if (dataType === "edge") {
            data.edges.add(item.data);
        } else if (dataType === "infect") {
            data.nodes.update({id: item.data.id, color: item.data.color});
            stepLabel.textContent = "step " + item.data.step;
        }

        index++;
        setTimeout(addItem, item.type === "infect" ? %d : 5);
    }
}

addItem();
        </script>
  </body>
</html>`
