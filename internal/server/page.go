package server

const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>netcanvas</title>
<style>
  html, body { margin: 0; height: 100%; overflow: hidden; background: #f7f7fa; }
  #view { position: absolute; inset: 0; width: 100%; height: 100%; touch-action: none; }
  #status { position: absolute; left: 8px; bottom: 6px; font: 12px sans-serif; color: #555; }
</style>
</head>
<body>
<img id="view" draggable="false" alt="">
<div id="status">connecting</div>
<script>
(() => {
  const view = document.getElementById("view");
  const status = document.getElementById("status");
  const proto = location.protocol === "https:" ? "wss:" : "ws:";
  const ws = new WebSocket(proto + "//" + location.host + "/ws");
  ws.binaryType = "blob";

  const bounds = () => {
    const r = view.getBoundingClientRect();
    return { x: r.left, y: r.top, w: r.width, h: r.height };
  };
  const send = (m) => { if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(m)); };
  const resize = () => {
    const b = bounds();
    send({ type: "resize", w: Math.round(b.w), h: Math.round(b.h), ratio: window.devicePixelRatio || 1, bounds: b });
  };
  const pointer = (type) => (e) => {
    send({ type, x: e.clientX, y: e.clientY, button: e.button, bounds: bounds() });
    e.preventDefault();
  };

  let url = null;
  ws.onopen = () => { status.textContent = "connected"; resize(); };
  ws.onclose = () => { status.textContent = "disconnected"; };
  ws.onmessage = (e) => {
    if (typeof e.data === "string") {
      const n = JSON.parse(e.data);
      if (n.type === "error") status.textContent = n.message;
      else if (n.type !== "hello") status.textContent = n.type + " " + (n.object || "") + (n.target ? " -> " + n.target : "");
      return;
    }
    const next = URL.createObjectURL(e.data);
    view.onload = () => { if (url) URL.revokeObjectURL(url); url = next; };
    view.src = next;
  };

  view.addEventListener("pointerdown", (e) => { view.setPointerCapture(e.pointerId); pointer("pointerdown")(e); });
  view.addEventListener("pointermove", pointer("pointermove"));
  view.addEventListener("pointerup", pointer("pointerup"));
  view.addEventListener("pointercancel", () => send({ type: "pointercancel" }));
  view.addEventListener("wheel", (e) => { send({ type: "wheel", deltaY: Math.sign(e.deltaY) }); e.preventDefault(); }, { passive: false });
  view.addEventListener("gesturestart", (e) => { send({ type: "pinch", phase: "begin", scale: 1 }); e.preventDefault(); });
  view.addEventListener("gesturechange", (e) => { send({ type: "pinch", phase: "change", scale: e.scale }); e.preventDefault(); });
  view.addEventListener("gestureend", (e) => { send({ type: "pinch", phase: "end", scale: e.scale }); e.preventDefault(); });
  window.addEventListener("keyup", (e) => send({ type: "keyup", key: e.key }));
  window.addEventListener("resize", resize);
})();
</script>
</body>
</html>
`
